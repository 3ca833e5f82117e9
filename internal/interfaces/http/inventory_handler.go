package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/economato-api/internal/application/dto"
	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/pkg/logger"
)

// InventoryHandler asignación, ingreso de lotes y consultas del stock central (protegido).
type InventoryHandler struct {
	allocation *inventory.AllocationUseCase
	intake     *inventory.LotIntakeUseCase
	queries    *inventory.QueryUseCase
	log        *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	allocation *inventory.AllocationUseCase,
	intake *inventory.LotIntakeUseCase,
	queries *inventory.QueryUseCase,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{allocation: allocation, intake: intake, queries: queries, log: log}
}

// Allocate godoc
// @Summary      Asignar stock central (FIFO por lotes)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocateRequest  true  "product_id, quantity, reference_type, reference_id"
// @Success      201   {object}  dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/allocations [post]
func (h *InventoryHandler) Allocate(c *fiber.Ctx) error {
	orgID, userID := GetOrganizationID(c), GetUserID(c)
	if orgID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AllocateRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.ReferenceType == entity.ReferenceAreaTransfer {
		// los traslados solo se asignan desde el flujo de solicitudes
		return writeError(c, h.log, &domain.ValidationError{Field: "reference_type", Message: "use /api/transfers para traslados"})
	}
	res, err := h.allocation.Allocate(c.UserContext(), inventory.AllocateInput{
		OrganizationID: orgID,
		UserID:         userID,
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		ReferenceType:  in.ReferenceType,
		ReferenceID:    in.ReferenceID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.AllocationResponse{
		ProductID:   res.ProductID,
		Requested:   res.Requested,
		Allocated:   res.Allocated,
		TotalCost:   res.TotalCost(),
		LedgerAfter: res.LedgerAfter.TotalQuantity,
		Depletions:  make([]dto.LotDepletionDTO, 0, len(res.Depletions)),
	}
	for _, d := range res.Depletions {
		out.Depletions = append(out.Depletions, dto.LotDepletionDTO{LotID: d.LotID, Amount: d.Amount, UnitCost: d.UnitCost})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ReceiveLot godoc
// @Summary      Ingresar lote de compra
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LotIntakeRequest  true  "product_id, quantity, unit_cost, expires_at"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/lots [post]
func (h *InventoryHandler) ReceiveLot(c *fiber.Ctx) error {
	orgID, userID := GetOrganizationID(c), GetUserID(c)
	if orgID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.LotIntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	var acquired time.Time
	if in.AcquiredAt != nil {
		acquired = *in.AcquiredAt
	}
	lot, err := h.intake.Receive(c.UserContext(), inventory.LotIntakeInput{
		OrganizationID: orgID,
		UserID:         userID,
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		AcquiredAt:     acquired,
		ExpiresAt:      in.ExpiresAt,
		ReferenceID:    in.ReferenceID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLotResponse(lot))
}

// ListLots godoc
// @Summary      Lotes de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id        query  string  true   "ID del producto"
// @Param        include_inactive  query  bool    false  "Incluir lotes agotados"
// @Success      200  {array}   dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/lots [get]
func (h *InventoryHandler) ListLots(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	productID := c.Query("product_id")
	if productID == "" {
		return writeError(c, h.log, &domain.ValidationError{Field: "product_id", Message: "es requerido"})
	}
	lots, err := h.queries.Lots(c.UserContext(), orgID, productID, c.QueryBool("include_inactive", false))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, toLotResponse(l))
	}
	return c.JSON(out)
}

// GetLedger godoc
// @Summary      Total del stock central de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.LedgerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/ledger/{product_id} [get]
func (h *InventoryHandler) GetLedger(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	entry, err := h.queries.Ledger(c.UserContext(), orgID, c.Params("product_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.LedgerResponse{ProductID: entry.ProductID, TotalQuantity: entry.TotalQuantity, UpdatedAt: entry.UpdatedAt})
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Description  Por producto (con rango de fechas RFC3339) o por documento de referencia.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id      query  string  false  "ID del producto"
// @Param        from            query  string  false  "Desde (RFC3339)"
// @Param        to              query  string  false  "Hasta (RFC3339)"
// @Param        reference_type  query  string  false  "order, area_transfer, purchase, ..."
// @Param        reference_id    query  string  false  "ID del documento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	orgID := GetOrganizationID(c)
	if orgID == "" {
		return unauthorized(c)
	}
	var (
		moves []*entity.MovementRecord
		err   error
	)
	if productID := c.Query("product_id"); productID != "" {
		from, errFrom := parseTimeQuery(c, "from")
		to, errTo := parseTimeQuery(c, "to")
		if errFrom != nil || errTo != nil {
			return writeError(c, h.log, &domain.ValidationError{Field: "from/to", Message: "formato RFC3339 esperado"})
		}
		page := pageFromQuery(c)
		moves, err = h.queries.MovementsByProduct(c.UserContext(), orgID, productID, from, to, page.Limit, page.Offset)
	} else {
		moves, err = h.queries.MovementsByReference(c.UserContext(), orgID, c.Query("reference_type"), c.Query("reference_id"))
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.MovementResponse, 0, len(moves))
	for _, m := range moves {
		out = append(out, dto.MovementResponse{
			ID: m.ID, ProductID: m.ProductID, LotID: m.LotID, AreaID: m.AreaID, Type: m.Type,
			Quantity: m.Quantity, UnitCost: m.UnitCost, TotalCost: m.TotalCost,
			ReferenceType: m.ReferenceType, ReferenceID: m.ReferenceID,
			CreatedBy: m.CreatedBy, CreatedAt: m.CreatedAt,
		})
	}
	return c.JSON(out)
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toLotResponse(l *entity.Lot) dto.LotResponse {
	return dto.LotResponse{
		ID:                l.ID,
		ProductID:         l.ProductID,
		InitialQuantity:   l.InitialQuantity,
		QuantityRemaining: l.QuantityRemaining,
		UnitCost:          l.UnitCost,
		TotalValue:        l.TotalValue(),
		AcquiredAt:        l.AcquiredAt,
		ExpiresAt:         l.ExpiresAt,
		Active:            l.Active,
	}
}
