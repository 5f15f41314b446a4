package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/callcenter-service/internal/api/dto"
	"github.com/spec-kit/callcenter-service/internal/auth"
	"github.com/spec-kit/callcenter-service/internal/repository"
	"github.com/spec-kit/callcenter-service/internal/service"
	apperrors "github.com/spec-kit/callcenter-service/pkg/util"
)

// RecordsHandler exposes call-record endpoints.
type RecordsHandler struct {
	records *service.RecordService
}

// NewRecordsHandler constructs handler.
func NewRecordsHandler(recordService *service.RecordService) *RecordsHandler {
	return &RecordsHandler{records: recordService}
}

// List handles GET /api/records. Admins receive every record, agents their
// own; non-admin responses carry masked phone numbers.
func (h *RecordsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	records, err := h.records.List(c.Context(), principal, parseRecordQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.RecordResponse, 0, len(records))
	for i := range records {
		items = append(items, dto.NewRecordResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /api/records/:id.
func (h *RecordsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	record, err := h.records.Get(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRecordResponse(record)})
}

// Create handles POST /api/records. Ownership is forced to the caller.
func (h *RecordsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	input, err := parseRecordBody(c)
	if err != nil {
		return err
	}
	record, err := h.records.Create(c.Context(), principal, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRecordResponse(record)})
}

// Update handles PUT /api/records/:id.
func (h *RecordsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	input, err := parseRecordBody(c)
	if err != nil {
		return err
	}
	record, err := h.records.Update(c.Context(), principal, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRecordResponse(record)})
}

// Delete handles DELETE /api/records/:id.
func (h *RecordsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.records.Delete(c.Context(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "record deleted"})
}

func parseRecordBody(c *fiber.Ctx) (service.RecordInput, error) {
	var req dto.RecordRequest
	if err := c.BodyParser(&req); err != nil {
		return service.RecordInput{}, apperrors.NewValidationError("invalid payload", nil)
	}

	var saleDate time.Time
	if req.SaleDate != "" {
		parsed, err := time.Parse("2006-01-02", req.SaleDate)
		if err != nil {
			return service.RecordInput{}, apperrors.NewValidationError("invalid sale_date, expected YYYY-MM-DD", nil)
		}
		saleDate = parsed
	}

	return service.RecordInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PrincipalPhone:   req.PrincipalPhone,
		AlternativePhone: req.AlternativePhone,
		Email:            req.Email,
		Address:          req.Address,
		SaleType:         req.SaleType,
		SaleID1:          req.SaleID1,
		SaleID2:          req.SaleID2,
		SaleCompleted:    req.SaleCompleted.Bool(),
		CallbackRequired: req.CallbackRequired.Bool(),
		CallbackAt:       req.CallbackAt,
		SaleDate:         saleDate,
		Notes:            req.Notes,
	}, nil
}

func parseRecordQuery(c *fiber.Ctx) repository.RecordFilter {
	filter := repository.RecordFilter{}

	if saleType := c.Query("sale_type"); saleType != "" {
		filter.SaleType = &saleType
	}
	if completed := c.Query("sale_completed"); completed != "" {
		if parsed, err := strconv.ParseBool(completed); err == nil {
			filter.Completed = &parsed
		}
	}
	if from := c.Query("created_from"); from != "" {
		if parsed, err := time.Parse("2006-01-02", from); err == nil {
			filter.CreatedFrom = &parsed
		}
	}
	if to := c.Query("created_to"); to != "" {
		if parsed, err := time.Parse("2006-01-02", to); err == nil {
			filter.CreatedTo = &parsed
		}
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}
