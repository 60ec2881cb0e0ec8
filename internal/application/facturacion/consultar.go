package facturacion

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	dtedom "github.com/jhoicas/Facturacion-api/internal/domain/dte"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// ConsultarUseCase reconsulta el estado del DTE ante Hacienda y concilia el
// estado local cuando un envío previo quedó sin desenlace registrado (proceso
// caído en vuelo, fallo de doble escritura).
//
// La consulta es advisoria: solo un PROCESADO de Hacienda muta estado local.
// Cualquier otro estado remoto deja el documento intacto, porque "no aceptado
// todavía" no implica rechazado (puede simplemente no existir aún allá).
type ConsultarUseCase struct {
	dteRepo    repository.DTERepository
	transmisor Transmisor
	log        *logger.Logger
}

// NewConsultarUseCase construye el caso de uso de conciliación.
func NewConsultarUseCase(dteRepo repository.DTERepository, transmisor Transmisor, log *logger.Logger) *ConsultarUseCase {
	return &ConsultarUseCase{dteRepo: dteRepo, transmisor: transmisor, log: log}
}

// Consultar reconsulta el DTE de la venta y concilia si corresponde.
func (uc *ConsultarUseCase) Consultar(ctx context.Context, ventaID string) (*dto.ConsultaResponse, error) {
	d, err := uc.dteRepo.GetByID(ctx, ventaID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}

	resultado := uc.transmisor.Consultar(ctx, ConsultaDTE{
		NitEmisor:        d.NitEmisor,
		TipoDte:          d.TipoDte,
		CodigoGeneracion: d.CodigoGeneracion,
	})

	if resultado.Tipo == dtedom.ResultadoInalcanzable {
		return nil, &domain.ErrorComunicacion{Causa: resultado.Causa}
	}

	if resultado.Tipo != dtedom.ResultadoAceptado {
		// Advisorio: un estado remoto no aceptado no autoriza a marcar rechazo.
		return dto.ToConsultaResponse(d, resultado.CodigoMsg, false), nil
	}

	transicion, errClase := dtedom.Aplicar(d, resultado)
	if errClase != nil {
		// Sello distinto al ya persistido: inconsistencia fatal, se propaga
		// con todo el detalle y sin escribir nada.
		return nil, errClase
	}
	if transicion.NoOp {
		// Ya estaba aceptado con el mismo sello; no se reescribe.
		return dto.ToConsultaResponse(d, resultado.CodigoMsg, false), nil
	}

	aplicado, err := uc.dteRepo.ReconciliarAceptado(ctx, d.ID, transicion.Sello)
	if err != nil {
		return nil, err
	}
	if !aplicado {
		// Otra petición transitó el documento entre la lectura y la escritura:
		// releer y verificar que el sello coincida.
		actual, err := uc.dteRepo.GetByID(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		if actual == nil || actual.SelloRecibido != transicion.Sello {
			sello := ""
			if actual != nil {
				sello = actual.SelloRecibido
			}
			return nil, &domain.ErrorIntegridad{SelloLocal: sello, SelloHacienda: transicion.Sello}
		}
		return dto.ToConsultaResponse(actual, resultado.CodigoMsg, false), nil
	}

	d.Estado = entity.DTEEstadoProcesado
	d.SelloRecibido = transicion.Sello
	uc.log.Info().
		Str("venta", d.ID).
		Str("sello", d.SelloRecibido).
		Msg("DTE conciliado como aceptado tras consulta a Hacienda")
	return dto.ToConsultaResponse(d, resultado.CodigoMsg, true), nil
}
