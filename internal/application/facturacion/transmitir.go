package facturacion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	dtedom "github.com/jhoicas/Facturacion-api/internal/domain/dte"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/hacienda"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// TransmitirUseCase orquesta el ciclo completo de emisión del DTE:
//
//	Candado por documento → Composición → Firma (firmador) → Envío MH → Transición durable
//
// La firma y la composición no consumen intentos: solo un envío que llegó a
// Hacienda (rechazo o sin respuesta) incrementa el contador. El mismo código
// de generación se reutiliza en cada reintento para que el MH deduplique.
type TransmitirUseCase struct {
	dteRepo    repository.DTERepository
	ventaRepo  repository.VentaRepository
	composer   *Composer
	firmador   Firmador
	transmisor Transmisor
	pdf        GeneradorPDF   // opcional; nil desactiva el comprobante
	correo     EnviadorCorreo // opcional; nil desactiva la notificación
	mhCfg      config.MHConfig
	log        *logger.Logger
}

// NewTransmitirUseCase construye el caso de uso con todas sus dependencias.
func NewTransmitirUseCase(
	dteRepo repository.DTERepository,
	ventaRepo repository.VentaRepository,
	composer *Composer,
	firmador Firmador,
	transmisor Transmisor,
	pdf GeneradorPDF,
	correo EnviadorCorreo,
	mhCfg config.MHConfig,
	log *logger.Logger,
) *TransmitirUseCase {
	return &TransmitirUseCase{
		dteRepo:    dteRepo,
		ventaRepo:  ventaRepo,
		composer:   composer,
		firmador:   firmador,
		transmisor: transmisor,
		pdf:        pdf,
		correo:     correo,
		mhCfg:      mhCfg,
		log:        log,
	}
}

// Transmitir ejecuta un intento de transmisión del DTE de la venta.
func (uc *TransmitirUseCase) Transmitir(ctx context.Context, ventaID string) (*dto.DTEResponse, error) {
	d, err := uc.dteRepo.GetByID(ctx, ventaID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	switch d.Estado {
	case entity.DTEEstadoEnProceso:
		return nil, domain.ErrEnvioEnCurso
	case entity.DTEEstadoProcesado, entity.DTEEstadoAnulado:
		// Ya presentado: el estado aceptado es terminal para esta operación.
		return nil, domain.ErrConflict
	}

	venta, err := uc.ventaRepo.GetByID(ctx, ventaID)
	if err != nil {
		return nil, err
	}
	if venta == nil {
		return nil, domain.ErrNotFound
	}

	// Candado por documento: a lo sumo un envío en vuelo por código de
	// generación, aunque el operador haga doble clic. El estado de reposo al
	// que vuelve un intento abortado lo decide el contador de intentos.
	estadoAnterior := entity.EstadoPendiente(d.IntentosEnvio)
	ok, err := uc.dteRepo.MarcarEnProceso(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrEnvioEnCurso
	}

	cuerpo, err := uc.composer.ComponerDTE(d, venta)
	if err != nil {
		uc.liberar(ctx, d.ID, estadoAnterior)
		return nil, err
	}

	firmado, err := uc.firmador.Firmar(ctx, cuerpo)
	if err != nil {
		// El documento nunca llegó a Hacienda: se libera el candado sin tocar
		// el contador de intentos.
		uc.liberar(ctx, d.ID, estadoAnterior)
		if ef, esFirma := err.(*domain.ErrorFirma); esFirma {
			return nil, ef
		}
		return nil, &domain.ErrorFirma{Mensaje: err.Error()}
	}

	envioCtx, cancel := context.WithTimeout(ctx, uc.mhCfg.Timeout())
	defer cancel()
	resultado := uc.transmisor.Enviar(envioCtx, EnvioDTE{
		Ambiente:         uc.mhCfg.Ambiente,
		IdEnvio:          hacienda.NuevoIdEnvio(),
		Version:          hacienda.VersionPorTipo(d.TipoDte),
		TipoDte:          d.TipoDte,
		Documento:        firmado,
		CodigoGeneracion: d.CodigoGeneracion,
	})

	transicion, errClase := dtedom.Aplicar(d, resultado)
	if transicion.Estado == "" {
		// Violación de integridad: no hay transición que persistir.
		uc.liberar(ctx, d.ID, estadoAnterior)
		return nil, errClase
	}

	if transicion.Estado == entity.DTEEstadoProcesado {
		if err := uc.dteRepo.RegistrarAceptado(ctx, d.ID, transicion.Sello); err != nil {
			// Peligro de doble escritura: Hacienda ya lo considera presentado.
			uc.log.Error().Err(err).
				Str("venta", d.ID).
				Str("codigo_generacion", d.CodigoGeneracion).
				Str("sello", transicion.Sello).
				Msg("DTE aceptado por Hacienda pero no registrado localmente; requiere conciliación")
			return nil, &domain.ErrorPersistenciaLocal{Sello: transicion.Sello, Causa: err}
		}
		d.Estado = entity.DTEEstadoProcesado
		d.SelloRecibido = transicion.Sello
		uc.log.Info().
			Str("venta", d.ID).
			Str("sello", d.SelloRecibido).
			Int("intentos", d.IntentosEnvio).
			Msg("DTE aceptado por Hacienda")
		uc.notificarAsync(d, venta, cuerpo)
		return dto.ToDTEResponse(d), nil
	}

	// Rechazo o comunicación fallida: el intento se persiste antes de
	// propagar el error de clase al llamador.
	if err := uc.dteRepo.RegistrarRechazo(ctx, d.ID); err != nil {
		return nil, fmt.Errorf("persistir rechazo: %w", err)
	}
	d.Estado = entity.DTEEstadoRechazadoPendiente
	d.IntentosEnvio++
	uc.log.Warn().
		Str("venta", d.ID).
		Int("intentos", d.IntentosEnvio).
		Str("codigo_msg", resultado.CodigoMsg).
		Msg("transmisión de DTE sin aceptación")
	return nil, errClase
}

// GetEstado devuelve el estado local del DTE sin llamada a Hacienda.
func (uc *TransmitirUseCase) GetEstado(ctx context.Context, ventaID string) (*dto.DTEResponse, error) {
	d, err := uc.dteRepo.GetByID(ctx, ventaID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	return dto.ToDTEResponse(d), nil
}

// liberar devuelve el documento a su estado de reposo tras un aborto previo a
// Hacienda. El fallo del propio release solo se registra: el candado expira
// con la siguiente conciliación manual.
func (uc *TransmitirUseCase) liberar(ctx context.Context, id, estadoAnterior string) {
	if err := uc.dteRepo.LiberarEnProceso(ctx, id, estadoAnterior); err != nil {
		uc.log.Error().Err(err).Str("venta", id).Msg("no se pudo liberar el candado de envío")
	}
}

// notificarAsync genera el comprobante y lo envía al receptor en una goroutine
// independiente. Fallos aquí jamás alteran el estado del DTE.
func (uc *TransmitirUseCase) notificarAsync(d *entity.DTE, venta *entity.Venta, cuerpo *CuerpoDTE) {
	if uc.pdf == nil || uc.correo == nil || venta.ClienteCorreo == "" {
		return
	}
	doc := *d
	v := *venta
	go func() {
		ctx := context.Background()
		pdfBytes, err := uc.pdf.GenerarComprobante(ctx, &doc, &v)
		if err != nil {
			uc.log.Warn().Err(err).Str("venta", doc.ID).Msg("no se pudo generar el comprobante PDF")
			return
		}
		dteJSON, err := json.Marshal(cuerpo)
		if err != nil {
			uc.log.Warn().Err(err).Str("venta", doc.ID).Msg("no se pudo serializar el DTE para el correo")
			return
		}
		nombre := hacienda.NombreArchivo(doc.NitEmisor, doc.CodigoGeneracion)
		asunto := hacienda.SinDiacriticos("Comprobante electrónico " + doc.NumeroControl)
		if err := uc.correo.EnviarComprobante(v.ClienteCorreo, asunto, nombre, pdfBytes, dteJSON); err != nil {
			uc.log.Warn().Err(err).Str("venta", doc.ID).Msg("no se pudo enviar el comprobante por correo")
		}
	}()
}
