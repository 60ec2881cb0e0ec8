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
	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	infracorreo "github.com/jhoicas/Facturacion-api/internal/infrastructure/correo"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/mh"
	infrapdf "github.com/jhoicas/Facturacion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Facturacion-api/internal/interfaces/http"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ambiente_mh", cfg.MH.Ambiente).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	dteRepo := postgres.NewDTERepository(pool)
	invRepo := postgres.NewInvalidacionRepository(pool)
	ventaRepo := postgres.NewVentaRepository(pool)
	usuarioRepo := postgres.NewUsuarioRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Clientes externos: firmador local y API de recepción del MH.
	firmador := mh.NewClienteFirmador(
		cfg.MH.FirmadorURL, cfg.MH.Emisor.NIT, cfg.MH.FirmadorPassword,
		cfg.MH.Timeout(), log,
	)
	transmisor := mh.NewClienteRecepcion(cfg.MH.URLBase, cfg.MH.Token, cfg.MH.Timeout(), log)

	composer := facturacion.NewComposer(cfg.MH)

	// Comprobante al receptor: PDF + correo, solo si el SMTP está habilitado.
	var pdfGen facturacion.GeneradorPDF
	var correoSender facturacion.EnviadorCorreo
	if cfg.Correo.Habilitado {
		pdfGen = infrapdf.NewMarotoDTEGenerator(cfg.MH.Emisor, cfg.MH.Ambiente)
		correoSender = infracorreo.NewGomailSender(cfg.Correo)
	}

	transmitirUC := facturacion.NewTransmitirUseCase(
		dteRepo, ventaRepo, composer, firmador, transmisor,
		pdfGen, correoSender, cfg.MH, log,
	)
	anularUC := facturacion.NewAnularUseCase(
		dteRepo, invRepo, ventaRepo, txRunner, composer, firmador, transmisor,
		cfg.MH, log,
	)
	consultarUC := facturacion.NewConsultarUseCase(dteRepo, transmisor, log)

	authUC := auth.NewAuthUseCase(usuarioRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    cfg.App.Name,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		TransmitirUC: transmitirUC,
		AnularUC:     anularUC,
		ConsultarUC:  consultarUC,
		AuthUC:       authUC,
		JWTSecret:    cfg.JWT.Secret,
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

	log.Info().Msg("aplicación detenida")
}
