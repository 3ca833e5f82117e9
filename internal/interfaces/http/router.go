package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/application/transfer"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Allocation    *inventory.AllocationUseCase
	LotIntake     *inventory.LotIntakeUseCase
	Queries       *inventory.QueryUseCase
	AreaInventory *inventory.AreaInventoryUseCase
	Areas         repository.AreaRepository
	Transfers     *transfer.WorkflowUseCase
	JWTSecret     string
	JWTIssuer     string
	Logger        *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("http")

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	managers := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)

	// Stock central
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Allocation, deps.LotIntake, deps.Queries, log)
	inv.Post("/allocations", inventoryHandler.Allocate)
	inv.Post("/lots", managers, inventoryHandler.ReceiveLot)
	inv.Get("/lots", inventoryHandler.ListLots)
	inv.Get("/ledger/:product_id", inventoryHandler.GetLedger)
	inv.Get("/movements", inventoryHandler.ListMovements)

	// Áreas
	areas := api.Group("/areas")
	areaHandler := NewAreaHandler(deps.Areas, deps.AreaInventory, log)
	areas.Get("/", areaHandler.List)
	areas.Get("/:id", areaHandler.GetByID)
	areas.Get("/:id/inventory", areaHandler.Inventory)
	areas.Post("/:id/consumptions", areaHandler.Consume)
	areas.Post("/:id/restocks", managers, areaHandler.Restock)
	areas.Get("/:id/replenishment", areaHandler.Replenishment)

	// Traslados
	transfers := api.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers, log)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Get("/:id/history", transferHandler.History)
	transfers.Post("/:id/decision", managers, transferHandler.Decide)
	transfers.Post("/:id/confirm", transferHandler.Confirm)
}
