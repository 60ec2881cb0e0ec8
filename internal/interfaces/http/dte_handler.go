package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

// DTEHandler maneja las peticiones HTTP de facturación electrónica (protegido).
type DTEHandler struct {
	transmitir *facturacion.TransmitirUseCase
	anular     *facturacion.AnularUseCase
	consultar  *facturacion.ConsultarUseCase
}

// NewDTEHandler construye el handler.
func NewDTEHandler(
	transmitir *facturacion.TransmitirUseCase,
	anular *facturacion.AnularUseCase,
	consultar *facturacion.ConsultarUseCase,
) *DTEHandler {
	return &DTEHandler{transmitir: transmitir, anular: anular, consultar: consultar}
}

// Transmitir firma y transmite el DTE de la venta al Ministerio de Hacienda.
// POST /api/dte/:ventaId/transmitir
func (h *DTEHandler) Transmitir(c *fiber.Ctx) error {
	ventaID := c.Params("ventaId")
	if ventaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "ventaId requerido"})
	}
	resp, err := h.transmitir.Transmitir(c.Context(), ventaID)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// Anular solicita la invalidación de un DTE aceptado.
// POST /api/dte/:ventaId/anular
func (h *DTEHandler) Anular(c *fiber.Ctx) error {
	ventaID := c.Params("ventaId")
	if ventaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "ventaId requerido"})
	}
	var in dto.AnularRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.anular.Anular(c.Context(), ventaID, in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// Consultar pregunta a Hacienda el estado del DTE y concilia si corresponde.
// POST /api/dte/:ventaId/consultar
func (h *DTEHandler) Consultar(c *fiber.Ctx) error {
	ventaID := c.Params("ventaId")
	if ventaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "ventaId requerido"})
	}
	resp, err := h.consultar.Consultar(c.Context(), ventaID)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// GetByID devuelve el estado local del DTE, sin llamada a Hacienda.
// GET /api/dte/:ventaId
func (h *DTEHandler) GetByID(c *fiber.Ctx) error {
	ventaID := c.Params("ventaId")
	if ventaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "ventaId requerido"})
	}
	resp, err := h.transmitir.GetEstado(c.Context(), ventaID)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// responderError traduce la taxonomía de errores del dominio a HTTP. Cada
// clase conserva su código propio: el operador distingue un rechazo de
// Hacienda de un fallo de comunicación, y el peligro de doble escritura nunca
// se disfraza de error genérico.
func responderError(c *fiber.Ctx, err error) error {
	var (
		errFirma        *domain.ErrorFirma
		errComunicacion *domain.ErrorComunicacion
		errRechazo      *domain.ErrorRechazo
		errPersistencia *domain.ErrorPersistenciaLocal
		errIntegridad   *domain.ErrorIntegridad
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "documento no encontrado"})
	case errors.Is(err, domain.ErrEnvioEnCurso):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ENVIO_EN_CURSO", Message: "ya hay un envío en curso para este documento"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrDatosIncompletos):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "DATOS_INCOMPLETOS", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.As(err, &errFirma):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "FIRMA", Message: errFirma.Error()})
	case errors.As(err, &errRechazo):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:          "RECHAZADO",
			Message:       errRechazo.Descripcion,
			Observaciones: errRechazo.Observaciones,
		})
	case errors.As(err, &errComunicacion):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "COMUNICACION", Message: "Hacienda inalcanzable; reintente más tarde"})
	case errors.As(err, &errPersistencia):
		// Hacienda aceptó pero la escritura local falló: el operador debe
		// conciliar con la consulta de estado, no reintentar la transmisión.
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code:    "ACEPTADO_NO_REGISTRADO",
			Message: errPersistencia.Error(),
		})
	case errors.As(err, &errIntegridad):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTEGRIDAD", Message: errIntegridad.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
