package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TransmitirUC *facturacion.TransmitirUseCase
	AnularUC     *facturacion.AnularUseCase
	ConsultarUC  *facturacion.ConsultarUseCase
	AuthUC       *auth.AuthUseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Facturación electrónica (protegido)
	dteGroup := protected.Group("/dte")
	dteHandler := NewDTEHandler(deps.TransmitirUC, deps.AnularUC, deps.ConsultarUC)
	dteGroup.Get("/:ventaId", dteHandler.GetByID)
	dteGroup.Post("/:ventaId/transmitir", dteHandler.Transmitir)
	dteGroup.Post("/:ventaId/consultar", dteHandler.Consultar)
	// Invalidar un DTE aceptado exige rol admin.
	dteGroup.Post("/:ventaId/anular", RequireRole(entity.RolAdmin), dteHandler.Anular)
}
