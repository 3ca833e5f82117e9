package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/economato-api/internal/application/dto"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/pkg/logger"
)

// writeError traduce errores de dominio a status + dto.ErrorResponse.
// Los errores no tipados se registran y se devuelven como 500 sin detalle interno.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var (
		notFound      *domain.NotFoundError
		validation    *domain.ValidationError
		invalidState  *domain.InvalidStateError
		insufficient  *domain.InsufficientStockError
		areaShort     *domain.InsufficientAreaStockError
		shortfall     *domain.AllocationShortfallError
		invalidAmount *domain.InvalidAmountError
	)
	switch {
	case errors.As(err, &validation):
		details := map[string]string{}
		if validation.Field != "" {
			details["field"] = validation.Field
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validation.Error(), Details: details})
	case errors.As(err, &invalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_AMOUNT", Message: invalidAmount.Error()})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: notFound.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autorizado"})
	case errors.As(err, &invalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INVALID_STATE",
			Message: invalidState.Error(),
			Details: map[string]string{"current": invalidState.Current, "required": invalidState.Required},
		})
	case errors.Is(err, domain.ErrInvalidCode):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INVALID_CODE", Message: "código de confirmación inválido"})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:      "INSUFFICIENT_STOCK",
			Message:   insufficient.Error(),
			Retryable: true,
			Details: map[string]string{
				"product_id": insufficient.ProductID,
				"available":  insufficient.Available.String(),
				"requested":  insufficient.Requested.String(),
			},
		})
	case errors.As(err, &areaShort):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:      "INSUFFICIENT_AREA_STOCK",
			Message:   areaShort.Error(),
			Retryable: true,
			Details: map[string]string{
				"area_id":    areaShort.AreaID,
				"product_id": areaShort.ProductID,
				"available":  areaShort.Available.String(),
				"requested":  areaShort.Requested.String(),
			},
		})
	case errors.As(err, &shortfall):
		log.WithContext(c.UserContext()).Warn().Err(err).Str("product_id", shortfall.ProductID).Msg("divergencia entre ledger y lotes")
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALLOCATION_SHORTFALL", Message: shortfall.Error(), Retryable: true})
	}
	log.WithContext(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}
