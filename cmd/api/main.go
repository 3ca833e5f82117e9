package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/application/transfer"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/internal/infrastructure/csvseed"
	"github.com/jhoicas/economato-api/internal/infrastructure/kafka"
	"github.com/jhoicas/economato-api/internal/infrastructure/memory"
	"github.com/jhoicas/economato-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/economato-api/internal/interfaces/http"
	"github.com/jhoicas/economato-api/pkg/config"
	"github.com/jhoicas/economato-api/pkg/logger"
	"github.com/jhoicas/economato-api/pkg/telemetry"
)

// storage puertos que comparten postgres y memory.
type storage struct {
	txRunner inventory.TxRunner
	repos    repository.TxRepos
	areas    repository.AreaRepository
	catalog  csvseed.Catalog
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	store := openStorage(ctx, cfg, log)
	defer store.close()

	var opts []transfer.Option
	if cfg.Kafka.Enabled() {
		publisher := kafka.NewTransferPublisher(cfg.Kafka)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar publicador kafka")
			}
		}()
		opts = append(opts, transfer.WithNotifier(publisher))
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.TransferTopic).Msg("eventos de traslado en kafka")
	}

	allocationUC := inventory.NewAllocationUseCase(store.txRunner, log)
	lotIntakeUC := inventory.NewLotIntakeUseCase(store.txRunner, log)
	areaInventoryUC := inventory.NewAreaInventoryUseCase(store.txRunner, store.areas, store.repos.Areas, log)
	queryUC := inventory.NewQueryUseCase(store.repos)
	workflowUC := transfer.NewWorkflowUseCase(store.txRunner, allocationUC, store.repos.Transfers, store.areas, log, opts...)

	if cfg.DB.Driver == config.StorageDriverMemory && cfg.Seed.File != "" {
		seedMemory(ctx, cfg.Seed, store.catalog, lotIntakeUC, log)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Economato API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Allocation:    allocationUC,
		LotIntake:     lotIntakeUC,
		Queries:       queryUC,
		AreaInventory: areaInventoryUC,
		Areas:         store.areas,
		Transfers:     workflowUC,
		JWTSecret:     cfg.JWT.Secret,
		JWTIssuer:     cfg.JWT.Issuer,
		Logger:        log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("vaciar trazas")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.DB.Driver == config.StorageDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return storage{txRunner: s, repos: s.Repos(), areas: s.Areas(), catalog: s.Catalog(), close: func() {}}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	tx := postgres.NewTxRunner(pool)
	return storage{txRunner: tx, repos: tx.Repos(), areas: tx.Areas(), catalog: postgres.NewCatalog(pool), close: pool.Close}
}

func seedMemory(ctx context.Context, cfg config.SeedConfig, catalog csvseed.Catalog, intake *inventory.LotIntakeUseCase, log *logger.Logger) {
	f, err := os.Open(cfg.File)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.File).Msg("abrir planilla de carga inicial")
	}
	defer f.Close()
	sum, err := csvseed.NewImporter(catalog, intake, log).Import(ctx, f, csvseed.Options{
		OrganizationID: cfg.OrganizationID,
		UserID:         "seed",
		Latin1:         cfg.Latin1,
	})
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.File).Msg("carga inicial")
	}
	log.Info().Int("areas", sum.Areas).Int("lots", sum.Lots).Msg("datos de demostración cargados")
}
