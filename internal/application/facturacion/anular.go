package facturacion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	dtedom "github.com/jhoicas/Facturacion-api/internal/domain/dte"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/hacienda"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// AnularUseCase orquesta la invalidación de un DTE aceptado: un segundo
// documento con identidad propia que pasa por el mismo ciclo de firma y envío
// contra el endpoint de anulación del MH.
//
// Precondiciones verificadas antes de cualquier llamada de red: el DTE padre
// está PROCESADO y no existe ya una invalidación aceptada. Un evento PENDIENTE
// reutiliza su código de generación; uno RECHAZADO es terminal y el siguiente
// intento acuña un código nuevo.
type AnularUseCase struct {
	dteRepo    repository.DTERepository
	invRepo    repository.InvalidacionRepository
	ventaRepo  repository.VentaRepository
	txRunner   AnulacionTxRunner
	composer   *Composer
	firmador   Firmador
	transmisor Transmisor
	mhCfg      config.MHConfig
	log        *logger.Logger
}

// NewAnularUseCase construye el caso de uso de invalidación.
func NewAnularUseCase(
	dteRepo repository.DTERepository,
	invRepo repository.InvalidacionRepository,
	ventaRepo repository.VentaRepository,
	txRunner AnulacionTxRunner,
	composer *Composer,
	firmador Firmador,
	transmisor Transmisor,
	mhCfg config.MHConfig,
	log *logger.Logger,
) *AnularUseCase {
	return &AnularUseCase{
		dteRepo:    dteRepo,
		invRepo:    invRepo,
		ventaRepo:  ventaRepo,
		txRunner:   txRunner,
		composer:   composer,
		firmador:   firmador,
		transmisor: transmisor,
		mhCfg:      mhCfg,
		log:        log,
	}
}

// Anular ejecuta un intento de invalidación del DTE de la venta.
func (uc *AnularUseCase) Anular(ctx context.Context, ventaID string, in dto.AnularRequest) (*dto.InvalidacionResponse, error) {
	d, err := uc.dteRepo.GetByID(ctx, ventaID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	if d.Estado != entity.DTEEstadoProcesado {
		// Solo un DTE aceptado puede invalidarse; se corta antes de tocar red.
		return nil, domain.ErrConflict
	}
	aceptada, err := uc.invRepo.GetAceptada(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if aceptada != nil {
		return nil, domain.ErrConflict
	}

	inv, err := uc.eventoVigente(ctx, d, in)
	if err != nil {
		return nil, err
	}

	// Candado del evento: a lo sumo una anulación en vuelo por documento.
	ok, err := uc.invRepo.MarcarEnProceso(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrEnvioEnCurso
	}

	venta, err := uc.ventaRepo.GetByID(ctx, ventaID)
	if err != nil {
		uc.liberar(ctx, inv.ID)
		return nil, err
	}
	if venta == nil {
		uc.liberar(ctx, inv.ID)
		return nil, domain.ErrNotFound
	}

	cuerpo, err := uc.composer.ComponerInvalidacion(d, inv, venta)
	if err != nil {
		uc.liberar(ctx, inv.ID)
		return nil, err
	}

	firmado, err := uc.firmador.Firmar(ctx, cuerpo)
	if err != nil {
		uc.liberar(ctx, inv.ID)
		if ef, esFirma := err.(*domain.ErrorFirma); esFirma {
			return nil, ef
		}
		return nil, &domain.ErrorFirma{Mensaje: err.Error()}
	}

	envioCtx, cancel := context.WithTimeout(ctx, uc.mhCfg.Timeout())
	defer cancel()
	resultado := uc.transmisor.Anular(envioCtx, EnvioAnulacion{
		Ambiente:  uc.mhCfg.Ambiente,
		IdEnvio:   hacienda.NuevoIdEnvio(),
		Version:   hacienda.VersionInvalidacion,
		Documento: firmado,
	})

	switch resultado.Tipo {
	case dtedom.ResultadoAceptado:
		return uc.cerrarAceptada(ctx, d, inv, resultado)

	case dtedom.ResultadoRechazado:
		// Terminal para este evento: el padre no se toca y un reintento
		// exigirá un código de generación nuevo.
		inv.Estado = entity.InvalidacionEstadoRechazado
		inv.CodigoMsg = resultado.CodigoMsg
		inv.DescripcionMsg = resultado.DescripcionMsg
		inv.Observaciones = resultado.Observaciones
		inv.FhProcesamiento = resultado.FhProcesamiento
		if err := uc.invRepo.RegistrarResultado(ctx, inv); err != nil {
			return nil, fmt.Errorf("persistir rechazo de invalidación: %w", err)
		}
		uc.log.Warn().
			Str("venta", d.ID).
			Str("codigo_msg", inv.CodigoMsg).
			Msg("invalidación rechazada por Hacienda")
		return nil, &domain.ErrorRechazo{
			Codigo:        resultado.CodigoMsg,
			Descripcion:   resultado.DescripcionMsg,
			Observaciones: resultado.Observaciones,
		}

	default: // ResultadoInalcanzable
		// Sin resultado terminal: el evento vuelve a PENDIENTE con su código
		// intacto, reutilizable en el siguiente intento.
		inv.Estado = entity.InvalidacionEstadoPendiente
		inv.Observaciones = fmt.Sprintf("sin respuesta de Hacienda: %v", resultado.Causa)
		if err := uc.invRepo.RegistrarResultado(ctx, inv); err != nil {
			return nil, fmt.Errorf("persistir intento de invalidación: %w", err)
		}
		return nil, &domain.ErrorComunicacion{Causa: resultado.Causa}
	}
}

// eventoVigente reutiliza la invalidación no terminal existente o acuña una
// nueva con código de generación propio.
func (uc *AnularUseCase) eventoVigente(ctx context.Context, d *entity.DTE, in dto.AnularRequest) (*entity.Invalidacion, error) {
	vigente, err := uc.invRepo.GetVigente(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if vigente != nil {
		if vigente.Estado == entity.InvalidacionEstadoEnProceso {
			return nil, domain.ErrEnvioEnCurso
		}
		return vigente, nil
	}

	now := time.Now()
	inv := &entity.Invalidacion{
		ID:                   uuid.New().String(),
		DteID:                d.ID,
		CodigoGeneracion:     hacienda.NuevoCodigoGeneracion(),
		TipoAnulacion:        in.TipoAnulacion,
		MotivoAnulacion:      in.Motivo,
		ResponsableNombre:    in.ResponsableNombre,
		ResponsableDocumento: in.ResponsableDocumento,
		Estado:               entity.InvalidacionEstadoPendiente,
		Ambiente:             uc.mhCfg.Ambiente,
		Version:              hacienda.VersionInvalidacion,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	creada, err := uc.invRepo.Crear(ctx, inv)
	if err != nil {
		return nil, err
	}
	if !creada {
		// Otra petición acuñó el evento entre la lectura y el insert: se
		// relee y esa anulación es la que manda.
		vigente, err = uc.invRepo.GetVigente(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		if vigente == nil || vigente.Estado == entity.InvalidacionEstadoEnProceso {
			return nil, domain.ErrEnvioEnCurso
		}
		return vigente, nil
	}
	return inv, nil
}

// cerrarAceptada cierra la invalidación aceptada en una sola transacción:
// DTE padre a ANULADO, reversión idempotente de la venta y evento PROCESADO.
func (uc *AnularUseCase) cerrarAceptada(ctx context.Context, d *entity.DTE, inv *entity.Invalidacion, resultado dtedom.Resultado) (*dto.InvalidacionResponse, error) {
	inv.Estado = entity.InvalidacionEstadoProcesado
	inv.CodigoMsg = resultado.CodigoMsg
	inv.DescripcionMsg = resultado.DescripcionMsg
	inv.Observaciones = resultado.Observaciones
	inv.FhProcesamiento = resultado.FhProcesamiento

	err := uc.txRunner.RunAnulacion(ctx, func(
		dteRepo repository.DTERepository,
		invRepo repository.InvalidacionRepository,
		ventaRepo repository.VentaRepository,
	) error {
		anulado, err := dteRepo.RegistrarAnulado(ctx, d.ID)
		if err != nil {
			return err
		}
		if !anulado {
			return fmt.Errorf("el DTE %s ya no estaba en PROCESADO: %w", d.ID, domain.ErrConflict)
		}
		if err := ventaRepo.RevertirEfectos(ctx, d.ID); err != nil {
			return err
		}
		return invRepo.RegistrarResultado(ctx, inv)
	})
	if err != nil {
		// Hacienda ya aceptó la invalidación: el cierre local fallido es el
		// mismo peligro de doble escritura que en la transmisión.
		uc.log.Error().Err(err).
			Str("venta", d.ID).
			Str("codigo_invalidacion", inv.CodigoGeneracion).
			Msg("invalidación aceptada por Hacienda pero no registrada localmente; requiere conciliación")
		return nil, &domain.ErrorPersistenciaLocal{Sello: resultado.Sello, Causa: err}
	}

	uc.log.Info().
		Str("venta", d.ID).
		Str("codigo_invalidacion", inv.CodigoGeneracion).
		Msg("DTE anulado ante Hacienda")
	return dto.ToInvalidacionResponse(inv), nil
}

func (uc *AnularUseCase) liberar(ctx context.Context, invID string) {
	if err := uc.invRepo.LiberarEnProceso(ctx, invID); err != nil {
		uc.log.Error().Err(err).Str("invalidacion", invID).Msg("no se pudo liberar el candado de anulación")
	}
}
