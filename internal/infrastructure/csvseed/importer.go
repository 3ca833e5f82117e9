// Package csvseed carga áreas, productos y lotes iniciales desde planillas CSV.
//
// Cada fila empieza con el tipo de registro:
//
//	area;<id>;<nombre>;<tipo: kitchen|bar|warehouse>
//	lote;<producto_id>;<nombre>;<unidad>;<fraccionario si|no>;<cantidad>;<costo unitario>;<ingreso AAAA-MM-DD>;<vencimiento AAAA-MM-DD>;<referencia>
//
// Las líneas vacías y las que empiezan con # se ignoran. Los lotes pasan por el mismo
// caso de uso de ingreso que la API, así que historial, costo promedio y ledger quedan consistentes.
package csvseed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const dateLayout = "2006-01-02"

// Catalog altas idempotentes del catálogo (postgres.Catalog, memory.Catalog).
type Catalog interface {
	EnsureOrganization(ctx context.Context, org *entity.Organization) error
	CreateProduct(ctx context.Context, p *entity.Product) error
	CreateArea(ctx context.Context, a *entity.Area) error
}

// Options formato del archivo y destino de la carga.
type Options struct {
	OrganizationID   string
	OrganizationName string
	UserID           string
	Comma            rune // ';' por defecto; con ';' la coma se acepta como separador decimal
	Latin1           bool // planillas exportadas en ISO-8859-1
}

// Summary conteo de lo cargado.
type Summary struct {
	Areas int
	Lots  int
}

// Importer aplica las filas del CSV.
type Importer struct {
	catalog Catalog
	intake  *inventory.LotIntakeUseCase
	log     *logger.Logger
}

// NewImporter construye el importador.
func NewImporter(catalog Catalog, intake *inventory.LotIntakeUseCase, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{catalog: catalog, intake: intake, log: log.Named("csvseed")}
}

// Import procesa r fila por fila. Se detiene en el primer error indicando la línea.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts Options) (Summary, error) {
	var sum Summary
	if opts.OrganizationID == "" {
		return sum, errors.New("organización requerida")
	}
	if opts.Comma == 0 {
		opts.Comma = ';'
	}
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	name := opts.OrganizationName
	if name == "" {
		name = opts.OrganizationID
	}
	if err := im.catalog.EnsureOrganization(ctx, &entity.Organization{ID: opts.OrganizationID, Name: name}); err != nil {
		return sum, err
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Comma
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("leer csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		switch strings.ToLower(strings.TrimSpace(rec[0])) {
		case "":
			continue
		case "area":
			if err := im.area(ctx, rec, opts); err != nil {
				return sum, fmt.Errorf("línea %d: %w", line, err)
			}
			sum.Areas++
		case "lote", "lot":
			if err := im.lot(ctx, rec, opts); err != nil {
				return sum, fmt.Errorf("línea %d: %w", line, err)
			}
			sum.Lots++
		default:
			return sum, fmt.Errorf("línea %d: tipo de registro %q desconocido", line, rec[0])
		}
	}
	im.log.Info().Int("areas", sum.Areas).Int("lots", sum.Lots).Str("organization_id", opts.OrganizationID).Msg("carga inicial aplicada")
	return sum, nil
}

func (im *Importer) area(ctx context.Context, rec []string, opts Options) error {
	if len(rec) < 4 {
		return fmt.Errorf("área: se esperan 4 columnas, hay %d", len(rec))
	}
	return im.catalog.CreateArea(ctx, &entity.Area{
		ID:             field(rec, 1),
		OrganizationID: opts.OrganizationID,
		Name:           field(rec, 2),
		Kind:           field(rec, 3),
	})
}

func (im *Importer) lot(ctx context.Context, rec []string, opts Options) error {
	if len(rec) < 7 {
		return fmt.Errorf("lote: se esperan al menos 7 columnas, hay %d", len(rec))
	}
	qty, err := parseDecimal(field(rec, 5), opts.Comma)
	if err != nil {
		return fmt.Errorf("cantidad: %w", err)
	}
	cost, err := parseDecimal(field(rec, 6), opts.Comma)
	if err != nil {
		return fmt.Errorf("costo: %w", err)
	}
	acquired, err := parseDate(field(rec, 7))
	if err != nil {
		return fmt.Errorf("ingreso: %w", err)
	}
	expires, err := parseDate(field(rec, 8))
	if err != nil {
		return fmt.Errorf("vencimiento: %w", err)
	}

	product := &entity.Product{
		ID:             field(rec, 1),
		OrganizationID: opts.OrganizationID,
		Name:           field(rec, 2),
		UnitMeasure:    field(rec, 3),
		IsFractional:   parseBool(field(rec, 4)),
		Cost:           cost,
	}
	if err := im.catalog.CreateProduct(ctx, product); err != nil {
		return err
	}
	in := inventory.LotIntakeInput{
		OrganizationID: opts.OrganizationID,
		UserID:         opts.UserID,
		ProductID:      product.ID,
		Quantity:       qty,
		UnitCost:       cost,
		ExpiresAt:      expires,
		ReferenceID:    field(rec, 9),
	}
	if acquired != nil {
		in.AcquiredAt = *acquired
	}
	_, err = im.intake.Receive(ctx, in)
	return err
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseDecimal(s string, comma rune) (decimal.Decimal, error) {
	if comma != ',' {
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "si", "sí", "s", "true", "1", "x":
		return true
	}
	return false
}
