// Package masking redacts sensitive contact fields for non-admin viewers.
package masking

// Marker replaces every masked digit.
const Marker = 'x'

// Phone redacts a phone value, preserving the trailing 4 characters verbatim
// and replacing every other digit with the marker. Non-digit characters
// (separators) pass through unchanged. Values of 4 characters or fewer are
// returned as-is.
func Phone(phone string) string {
	runes := []rune(phone)
	if len(runes) <= 4 {
		return phone
	}
	masked := make([]rune, len(runes))
	cut := len(runes) - 4
	for i, r := range runes {
		if i < cut && r >= '0' && r <= '9' {
			masked[i] = Marker
		} else {
			masked[i] = r
		}
	}
	return string(masked)
}

// PhonePtr masks through an optional value.
func PhonePtr(phone *string) *string {
	if phone == nil {
		return nil
	}
	masked := Phone(*phone)
	return &masked
}
