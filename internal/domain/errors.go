package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los tipos con campos satisfacen errors.Is con su sentinela.
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrForbidden             = errors.New("acceso denegado")
	ErrInvalidState          = errors.New("la solicitud no está en el estado requerido")
	ErrInvalidCode           = errors.New("código de confirmación inválido")
	ErrInvalidAmount         = errors.New("cantidad inválida para el lote")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrInsufficientAreaStock = errors.New("stock insuficiente en el área")
	ErrAllocationShortfall   = errors.New("los lotes no cubren la cantidad solicitada")
)

// NotFoundError identifica el recurso que no existe.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError entrada mal formada (p. ej. origen == destino).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// InvalidStateError la solicitud no está en el estado que exige la operación.
type InvalidStateError struct {
	RequestID string
	Current   string
	Required  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("solicitud %s en estado %q, se requiere %q", e.RequestID, e.Current, e.Required)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// InvalidCodeError el código suministrado no coincide. No consume el código.
type InvalidCodeError struct {
	RequestID string
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("código de confirmación inválido para la solicitud %s", e.RequestID)
}

func (e *InvalidCodeError) Is(target error) bool { return target == ErrInvalidCode }

// InvalidAmountError se intentó descontar de un lote más de lo que tiene.
type InvalidAmountError struct {
	LotID     string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("lote %s: cantidad %s inválida (disponible %s)", e.LotID, e.Requested, e.Available)
}

func (e *InvalidAmountError) Is(target error) bool { return target == ErrInvalidAmount }

// InsufficientStockError faltante en el stock central (ledger) u origen de un traslado.
type InsufficientStockError struct {
	ProductID string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %s, solicitado %s", e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// Shortfall cantidad que falta para cubrir lo solicitado.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// InsufficientAreaStockError faltante en el inventario de un área.
type InsufficientAreaStockError struct {
	AreaID    string
	ProductID string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientAreaStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en área %s para %s: disponible %s, solicitado %s",
		e.AreaID, e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientAreaStockError) Is(target error) bool { return target == ErrInsufficientAreaStock }

// AllocationShortfallError el ledger indicó stock suficiente pero los lotes activos no alcanzan.
// Indica divergencia ledger/lotes; la transacción se revierte completa.
type AllocationShortfallError struct {
	ProductID string
	Requested decimal.Decimal
	Allocated decimal.Decimal
}

func (e *AllocationShortfallError) Error() string {
	return fmt.Sprintf("faltante de asignación para %s: solicitado %s, cubierto por lotes %s",
		e.ProductID, e.Requested, e.Allocated)
}

func (e *AllocationShortfallError) Is(target error) bool { return target == ErrAllocationShortfall }

// IsRetryable indica si el llamador puede reintentar más tarde la misma operación.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInsufficientAreaStock) ||
		errors.Is(err, ErrAllocationShortfall)
}
