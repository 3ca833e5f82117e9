// seed carga áreas, productos y lotes iniciales desde una planilla CSV en PostgreSQL.
//
// Uso: go run ./cmd/seed --org <id> [--org-name Nombre] [--latin1] [--comma ';'] planilla.csv
// La conexión se toma de la misma configuración que la API (DB_* o DATABASE_URL).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/infrastructure/csvseed"
	"github.com/jhoicas/economato-api/internal/infrastructure/postgres"
	"github.com/jhoicas/economato-api/pkg/config"
	"github.com/jhoicas/economato-api/pkg/logger"
	flag "github.com/spf13/pflag"
)

func main() {
	orgID := flag.String("org", "", "ID de la organización destino")
	orgName := flag.String("org-name", "", "Nombre de la organización (si no existe)")
	userID := flag.String("user", "seed", "Usuario que figura en el historial")
	latin1 := flag.Bool("latin1", false, "La planilla está en ISO-8859-1")
	comma := flag.String("comma", ";", "Separador de columnas")
	flag.Parse()

	if flag.NArg() != 1 || *orgID == "" || len(*comma) != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed --org <id> [--org-name N] [--latin1] [--comma ;] planilla.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir planilla: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	intake := inventory.NewLotIntakeUseCase(postgres.NewTxRunner(pool), log)
	sum, err := csvseed.NewImporter(postgres.NewCatalog(pool), intake, log).Import(ctx, f, csvseed.Options{
		OrganizationID:   *orgID,
		OrganizationName: *orgName,
		UserID:           *userID,
		Comma:            rune((*comma)[0]),
		Latin1:           *latin1,
	})
	if err != nil {
		log.Error().Err(err).Msg("carga inicial")
		os.Exit(1)
	}
	fmt.Printf("Cargadas %d áreas y %d lotes en %s\n", sum.Areas, sum.Lots, *orgID)
}
