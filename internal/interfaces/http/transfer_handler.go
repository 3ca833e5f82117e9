package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/economato-api/internal/application/dto"
	"github.com/jhoicas/economato-api/internal/application/transfer"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/pkg/logger"
)

// TransferHandler solicitudes de traslado hacia áreas (protegido).
type TransferHandler struct {
	uc  *transfer.WorkflowUseCase
	log *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.WorkflowUseCase, log *logger.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear solicitud de traslado
// @Description  Sin origin_area_id el origen es el stock central.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "Destino e ítems"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	orgID, userID := GetOrganizationID(c), GetUserID(c)
	if orgID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	items := make([]transfer.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, transfer.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	req, err := h.uc.Create(c.UserContext(), transfer.CreateInput{
		OrganizationID:    orgID,
		UserID:            userID,
		OriginAreaID:      in.OriginAreaID,
		DestinationAreaID: in.DestinationAreaID,
		Items:             items,
		Observations:      in.Observations,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(req, false))
}

// List godoc
// @Summary      Listar solicitudes de traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pending, approved, rejected, processed, cancelled"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.TransferListResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	page := pageFromQuery(c)
	list, err := h.uc.List(c.UserContext(), orgID, c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.TransferListResponse{
		Items: make([]dto.TransferResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, r := range list {
		out.Items = append(out.Items, toTransferResponse(r, false))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener solicitud de traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	req, err := h.uc.Get(c.UserContext(), orgID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toTransferResponse(req, false))
}

// History godoc
// @Summary      Historial de estados de una solicitud
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {array}   dto.TransferHistoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/history [get]
func (h *TransferHandler) History(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	changes, err := h.uc.History(c.UserContext(), orgID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.TransferHistoryResponse, 0, len(changes))
	for _, ch := range changes {
		out = append(out, dto.TransferHistoryResponse{
			FromStatus:   ch.FromStatus,
			ToStatus:     ch.ToStatus,
			Observations: ch.Observations,
			UserID:       ch.UserID,
			CreatedAt:    ch.CreatedAt,
		})
	}
	return c.JSON(out)
}

// Decide godoc
// @Summary      Aprobar, rechazar o cancelar una solicitud pendiente
// @Description  Al aprobar la respuesta incluye confirmation_code; es la única vez que se expone.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la solicitud"
// @Param        body  body  dto.DecideTransferRequest  true  "approved | rejected | cancelled"
// @Success      200   {object}  dto.TransferResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/decision [post]
func (h *TransferHandler) Decide(c *fiber.Ctx) error {
	orgID, userID := GetOrganizationID(c), GetUserID(c)
	if orgID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.DecideTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	req, err := h.uc.Decide(c.UserContext(), transfer.DecideInput{
		OrganizationID: orgID,
		UserID:         userID,
		RequestID:      c.Params("id"),
		Decision:       in.Decision,
		Observations:   in.Observations,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toTransferResponse(req, req.Status == entity.TransferStatusApproved))
}

// Confirm godoc
// @Summary      Confirmar recepción con el código de aprobación
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la solicitud"
// @Param        body  body  dto.ConfirmTransferRequest  true  "code"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/confirm [post]
func (h *TransferHandler) Confirm(c *fiber.Ctx) error {
	orgID, userID := GetOrganizationID(c), GetUserID(c)
	if orgID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ConfirmTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	req, err := h.uc.Confirm(c.UserContext(), transfer.ConfirmInput{
		OrganizationID: orgID,
		UserID:         userID,
		RequestID:      c.Params("id"),
		Code:           in.Code,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toTransferResponse(req, false))
}

// toTransferResponse withCode solo en la respuesta de aprobación.
func toTransferResponse(r *entity.TransferRequest, withCode bool) dto.TransferResponse {
	out := dto.TransferResponse{
		ID:                r.ID,
		OriginAreaID:      r.OriginAreaID,
		DestinationAreaID: r.DestinationAreaID,
		Status:            r.Status,
		Observations:      r.Observations,
		RequestedBy:       r.RequestedBy,
		DecidedBy:         r.DecidedBy,
		DecidedAt:         r.DecidedAt,
		ProcessedBy:       r.ProcessedBy,
		ProcessedAt:       r.ProcessedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Items:             make([]dto.TransferItemResponse, 0, len(r.Items)),
	}
	if withCode && r.ConfirmationCode != nil {
		out.ConfirmationCode = *r.ConfirmationCode
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, dto.TransferItemResponse{
			ProductID:         it.ProductID,
			QuantityRequested: it.QuantityRequested,
			QuantitySent:      it.QuantitySent,
		})
	}
	return out
}
