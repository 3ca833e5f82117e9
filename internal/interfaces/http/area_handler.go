package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/economato-api/internal/application/dto"
	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/pkg/logger"
)

// AreaHandler áreas de servicio (cocina, bar) y su inventario (protegido).
type AreaHandler struct {
	areas repository.AreaRepository
	uc    *inventory.AreaInventoryUseCase
	log   *logger.Logger
}

// NewAreaHandler construye el handler.
func NewAreaHandler(areas repository.AreaRepository, uc *inventory.AreaInventoryUseCase, log *logger.Logger) *AreaHandler {
	return &AreaHandler{areas: areas, uc: uc, log: log}
}

// List godoc
// @Summary      Listar áreas
// @Tags         areas
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.AreaListResponse
// @Router       /api/areas [get]
func (h *AreaHandler) List(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	page := pageFromQuery(c)
	list, err := h.areas.ListByOrganization(c.UserContext(), orgID, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.AreaListResponse{
		Items: make([]dto.AreaResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, a := range list {
		out.Items = append(out.Items, toAreaResponse(a))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener área por ID
// @Tags         areas
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del área"
// @Success      200  {object}  dto.AreaResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/areas/{id} [get]
func (h *AreaHandler) GetByID(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	area, err := h.area(c, orgID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toAreaResponse(area))
}

// Inventory godoc
// @Summary      Stock de un área
// @Tags         areas
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del área"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AreaInventoryListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/areas/{id}/inventory [get]
func (h *AreaHandler) Inventory(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	page := pageFromQuery(c)
	entries, err := h.uc.List(c.UserContext(), orgID, c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.AreaInventoryListResponse{
		Items: make([]dto.AreaInventoryResponse, 0, len(entries)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, e := range entries {
		out.Items = append(out.Items, toAreaInventoryResponse(e))
	}
	return c.JSON(out)
}

// Consume godoc
// @Summary      Registrar consumo o merma en un área
// @Tags         areas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del área"
// @Param        body  body  dto.AreaMovementRequest  true  "product_id, quantity, reason (consumption|waste)"
// @Success      201   {object}  dto.AreaInventoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/areas/{id}/consumptions [post]
func (h *AreaHandler) Consume(c *fiber.Ctx) error {
	in, err := h.movementInput(c)
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}
	if in.ReferenceType == "" {
		in.ReferenceType = entity.ReferenceConsumption
	}
	entry, err := h.uc.Consume(c.UserContext(), *in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAreaInventoryResponse(entry))
}

// Restock godoc
// @Summary      Abastecer un área directamente (ajuste)
// @Tags         areas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del área"
// @Param        body  body  dto.AreaMovementRequest  true  "product_id, quantity"
// @Success      201   {object}  dto.AreaInventoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/areas/{id}/restocks [post]
func (h *AreaHandler) Restock(c *fiber.Ctx) error {
	in, err := h.movementInput(c)
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}
	in.ReferenceType = entity.ReferenceAdjustment
	entry, err := h.uc.Restock(c.UserContext(), *in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAreaInventoryResponse(entry))
}

// Replenishment godoc
// @Summary      Productos del área bajo su mínimo
// @Tags         areas
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del área"
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/areas/{id}/replenishment [get]
func (h *AreaHandler) Replenishment(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.ReplenishmentList(c.UserContext(), orgID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.ReplenishmentSuggestionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, dto.ReplenishmentSuggestionDTO{
			ProductID:    s.ProductID,
			Current:      s.Current,
			MinQuantity:  s.MinQuantity,
			MaxQuantity:  s.MaxQuantity,
			SuggestedQty: s.SuggestedQty,
			Priority:     s.Priority,
		})
	}
	return c.JSON(out)
}

// movementInput arma la entrada o escribe la respuesta de error; (nil, nil) = respuesta escrita.
func (h *AreaHandler) movementInput(c *fiber.Ctx) (*inventory.AreaMovementInput, error) {
	orgID, userID := GetOrganizationID(c), GetUserID(c)
	if orgID == "" || userID == "" {
		return nil, unauthorized(c)
	}
	var body dto.AreaMovementRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, invalidBody(c)
	}
	return &inventory.AreaMovementInput{
		OrganizationID: orgID,
		UserID:         userID,
		AreaID:         c.Params("id"),
		ProductID:      body.ProductID,
		Quantity:       body.Quantity,
		ReferenceType:  body.Reason,
		ReferenceID:    body.ReferenceID,
	}, nil
}

func (h *AreaHandler) area(c *fiber.Ctx, orgID string) (*entity.Area, error) {
	id := c.Params("id")
	area, err := h.areas.GetByID(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if area == nil || area.OrganizationID != orgID {
		return nil, &domain.NotFoundError{Resource: "área", ID: id}
	}
	return area, nil
}

func toAreaResponse(a *entity.Area) dto.AreaResponse {
	return dto.AreaResponse{ID: a.ID, Name: a.Name, Kind: a.Kind}
}

func toAreaInventoryResponse(e *entity.AreaInventoryEntry) dto.AreaInventoryResponse {
	return dto.AreaInventoryResponse{
		AreaID:      e.AreaID,
		ProductID:   e.ProductID,
		Quantity:    e.Quantity,
		MinQuantity: e.MinQuantity,
		MaxQuantity: e.MaxQuantity,
		UpdatedAt:   e.UpdatedAt,
	}
}
