package dto

import (
	"time"

	"github.com/spec-kit/callcenter-service/internal/domain"
)

// RecordRequest carries the writable call-record fields for create and
// update. SaleDate uses date-only format; CallbackAt is RFC 3339.
type RecordRequest struct {
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	PrincipalPhone   string     `json:"principal_phone"`
	AlternativePhone *string    `json:"alternative_phone"`
	Email            *string    `json:"email"`
	Address          *string    `json:"address"`
	SaleType         string     `json:"sale_type"`
	SaleID1          *string    `json:"sale_id_1"`
	SaleID2          *string    `json:"sale_id_2"`
	SaleCompleted    LooseBool  `json:"sale_completed"`
	CallbackRequired LooseBool  `json:"callback_required"`
	CallbackAt       *time.Time `json:"callback_at"`
	SaleDate         string     `json:"sale_date"`
	Notes            *string    `json:"notes"`
}

// RecordResponse is the wire shape of a call record. Phone fields are
// already masked for redacted viewers by the service layer.
type RecordResponse struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	PrincipalPhone   string     `json:"principal_phone"`
	AlternativePhone *string    `json:"alternative_phone"`
	Email            *string    `json:"email"`
	Address          *string    `json:"address"`
	SaleType         string     `json:"sale_type"`
	SaleID1          *string    `json:"sale_id_1"`
	SaleID2          *string    `json:"sale_id_2"`
	SaleCompleted    bool       `json:"sale_completed"`
	CallbackRequired bool       `json:"callback_required"`
	CallbackAt       *time.Time `json:"callback_at"`
	SaleDate         string     `json:"sale_date"`
	Notes            *string    `json:"notes"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewRecordResponse maps a domain record.
func NewRecordResponse(record *domain.CallRecord) RecordResponse {
	return RecordResponse{
		ID:               record.ID,
		OwnerID:          record.OwnerID,
		FirstName:        record.FirstName,
		LastName:         record.LastName,
		PrincipalPhone:   record.PrincipalPhone,
		AlternativePhone: record.AlternativePhone,
		Email:            record.Email,
		Address:          record.Address,
		SaleType:         record.SaleType,
		SaleID1:          record.SaleID1,
		SaleID2:          record.SaleID2,
		SaleCompleted:    record.SaleCompleted,
		CallbackRequired: record.CallbackRequired,
		CallbackAt:       record.CallbackAt,
		SaleDate:         record.SaleDate.Format("2006-01-02"),
		Notes:            record.Notes,
		CreatedAt:        record.CreatedAt,
	}
}
