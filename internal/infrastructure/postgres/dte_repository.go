package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.DTERepository = (*DTERepo)(nil)

// DTERepo implementación de DTERepository (usable con pool o tx).
// Cada transición es un único UPDATE condicional: el WHERE revalida el estado
// de partida, y cero filas afectadas significa que otra petición ganó.
type DTERepo struct {
	q Querier
}

// NewDTERepository construye el adaptador. Pasar pool o tx (Querier).
func NewDTERepository(q Querier) *DTERepo {
	return &DTERepo{q: q}
}

// GetByID obtiene el DTE de una venta. Devuelve nil si no existe.
func (r *DTERepo) GetByID(ctx context.Context, id string) (*entity.DTE, error) {
	query := `
		SELECT id, tipo_dte, codigo_generacion, numero_control, estado,
		       COALESCE(sello_recibido, ''), intentos_envio, nit_emisor, total_iva,
		       created_at, updated_at
		FROM dte WHERE id = $1`
	var d entity.DTE
	err := r.q.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.TipoDte, &d.CodigoGeneracion, &d.NumeroControl, &d.Estado,
		&d.SelloRecibido, &d.IntentosEnvio, &d.NitEmisor, &d.TotalIva,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dte: %w", err)
	}
	return &d, nil
}

// MarcarEnProceso toma el candado por documento. El WHERE limita la toma a los
// estados transmisibles; cero filas significa envío en vuelo o estado terminal.
func (r *DTERepo) MarcarEnProceso(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE dte
		SET estado = $2, updated_at = $3
		WHERE id = $1
		  AND estado IN ($4, $5, $6)`
	tag, err := r.q.Exec(ctx, query, id,
		entity.DTEEstadoEnProceso, time.Now(),
		entity.DTEEstadoPendienteFirma, entity.DTEEstadoPendienteEnvio, entity.DTEEstadoRechazadoPendiente,
	)
	if err != nil {
		return false, fmt.Errorf("marcar dte en proceso: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// LiberarEnProceso restaura el estado previo tras un aborto anterior al envío.
func (r *DTERepo) LiberarEnProceso(ctx context.Context, id, estadoAnterior string) error {
	query := `
		UPDATE dte
		SET estado = $2, updated_at = $3
		WHERE id = $1 AND estado = $4`
	tag, err := r.q.Exec(ctx, query, id, estadoAnterior, time.Now(), entity.DTEEstadoEnProceso)
	if err != nil {
		return fmt.Errorf("liberar dte en proceso: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("liberar dte %s: el documento no estaba en proceso", id)
	}
	return nil
}

// RegistrarAceptado persiste la aceptación: PROCESADO + sello desde EN_PROCESO.
func (r *DTERepo) RegistrarAceptado(ctx context.Context, id, sello string) error {
	query := `
		UPDATE dte
		SET estado = $2, sello_recibido = $3, updated_at = $4
		WHERE id = $1 AND estado = $5`
	tag, err := r.q.Exec(ctx, query, id,
		entity.DTEEstadoProcesado, sello, time.Now(), entity.DTEEstadoEnProceso,
	)
	if err != nil {
		return fmt.Errorf("registrar dte aceptado: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("registrar dte aceptado %s: el documento no estaba en proceso", id)
	}
	return nil
}

// RegistrarRechazo persiste rechazo o fallo de comunicación: el documento
// vuelve a reposo reintentable y el contador de intentos sube en uno.
func (r *DTERepo) RegistrarRechazo(ctx context.Context, id string) error {
	query := `
		UPDATE dte
		SET estado = $2, intentos_envio = intentos_envio + 1, updated_at = $3
		WHERE id = $1 AND estado = $4`
	tag, err := r.q.Exec(ctx, query, id,
		entity.DTEEstadoRechazadoPendiente, time.Now(), entity.DTEEstadoEnProceso,
	)
	if err != nil {
		return fmt.Errorf("registrar rechazo dte: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("registrar rechazo dte %s: el documento no estaba en proceso", id)
	}
	return nil
}

// ReconciliarAceptado registra una aceptación descubierta por consulta, sin
// candado previo: solo procede si el documento sigue en un estado pendiente.
func (r *DTERepo) ReconciliarAceptado(ctx context.Context, id, sello string) (bool, error) {
	query := `
		UPDATE dte
		SET estado = $2, sello_recibido = $3, updated_at = $4
		WHERE id = $1
		  AND estado IN ($5, $6, $7)`
	tag, err := r.q.Exec(ctx, query, id,
		entity.DTEEstadoProcesado, sello, time.Now(),
		entity.DTEEstadoPendienteFirma, entity.DTEEstadoPendienteEnvio, entity.DTEEstadoRechazadoPendiente,
	)
	if err != nil {
		return false, fmt.Errorf("reconciliar dte aceptado: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RegistrarAnulado pasa el documento de PROCESADO a ANULADO.
func (r *DTERepo) RegistrarAnulado(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE dte
		SET estado = $2, updated_at = $3
		WHERE id = $1 AND estado = $4`
	tag, err := r.q.Exec(ctx, query, id,
		entity.DTEEstadoAnulado, time.Now(), entity.DTEEstadoProcesado,
	)
	if err != nil {
		return false, fmt.Errorf("registrar dte anulado: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
