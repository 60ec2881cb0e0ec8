package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.InvalidacionRepository = (*InvalidacionRepo)(nil)

// InvalidacionRepo implementación de InvalidacionRepository (usable con pool o tx).
type InvalidacionRepo struct {
	q Querier
}

// NewInvalidacionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvalidacionRepository(q Querier) *InvalidacionRepo {
	return &InvalidacionRepo{q: q}
}

const columnasInvalidacion = `
	id, dte_id, codigo_generacion, tipo_anulacion, motivo_anulacion,
	responsable_nombre, responsable_documento, estado,
	COALESCE(codigo_msg, ''), COALESCE(descripcion_msg, ''), COALESCE(observaciones, ''),
	fh_procesamiento, ambiente, version, created_at, updated_at`

func (r *InvalidacionRepo) getWhere(ctx context.Context, cond string, args ...any) (*entity.Invalidacion, error) {
	query := `SELECT ` + columnasInvalidacion + ` FROM invalidaciones WHERE ` + cond
	var inv entity.Invalidacion
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&inv.ID, &inv.DteID, &inv.CodigoGeneracion, &inv.TipoAnulacion, &inv.MotivoAnulacion,
		&inv.ResponsableNombre, &inv.ResponsableDocumento, &inv.Estado,
		&inv.CodigoMsg, &inv.DescripcionMsg, &inv.Observaciones,
		&inv.FhProcesamiento, &inv.Ambiente, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invalidacion: %w", err)
	}
	return &inv, nil
}

// GetVigente devuelve la invalidación no terminal del DTE, o nil.
func (r *InvalidacionRepo) GetVigente(ctx context.Context, dteID string) (*entity.Invalidacion, error) {
	return r.getWhere(ctx, `dte_id = $1 AND estado IN ($2, $3) ORDER BY created_at DESC LIMIT 1`,
		dteID, entity.InvalidacionEstadoPendiente, entity.InvalidacionEstadoEnProceso)
}

// GetAceptada devuelve la invalidación PROCESADO del DTE, o nil.
func (r *InvalidacionRepo) GetAceptada(ctx context.Context, dteID string) (*entity.Invalidacion, error) {
	return r.getWhere(ctx, `dte_id = $1 AND estado = $2 LIMIT 1`,
		dteID, entity.InvalidacionEstadoProcesado)
}

// Crear persiste un evento de invalidación nuevo. El arbitraje del conflicto
// se apoya en el índice único parcial
//
//	CREATE UNIQUE INDEX invalidaciones_dte_vigente_ux
//	    ON invalidaciones (dte_id)
//	    WHERE estado IN ('PENDIENTE', 'EN_PROCESO');
//
// de modo que dos peticiones concurrentes que leyeron "sin vigente" no pueden
// insertar dos eventos para el mismo DTE: la perdedora recibe false.
func (r *InvalidacionRepo) Crear(ctx context.Context, inv *entity.Invalidacion) (bool, error) {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invalidaciones (id, dte_id, codigo_generacion, tipo_anulacion, motivo_anulacion,
			responsable_nombre, responsable_documento, estado, ambiente, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (dte_id) WHERE estado IN ('PENDIENTE', 'EN_PROCESO') DO NOTHING`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.DteID, inv.CodigoGeneracion, inv.TipoAnulacion, inv.MotivoAnulacion,
		inv.ResponsableNombre, inv.ResponsableDocumento, inv.Estado,
		inv.Ambiente, inv.Version, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("invalidacion duplicada para dte %s: %w", inv.DteID, err)
		}
		return false, fmt.Errorf("insert invalidacion: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarcarEnProceso toma el candado del evento: PENDIENTE → EN_PROCESO.
func (r *InvalidacionRepo) MarcarEnProceso(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE invalidaciones
		SET estado = $2, updated_at = $3
		WHERE id = $1 AND estado = $4`
	tag, err := r.q.Exec(ctx, query, id,
		entity.InvalidacionEstadoEnProceso, time.Now(), entity.InvalidacionEstadoPendiente,
	)
	if err != nil {
		return false, fmt.Errorf("marcar invalidacion en proceso: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// LiberarEnProceso devuelve el evento a PENDIENTE; el código queda reutilizable.
func (r *InvalidacionRepo) LiberarEnProceso(ctx context.Context, id string) error {
	query := `
		UPDATE invalidaciones
		SET estado = $2, updated_at = $3
		WHERE id = $1 AND estado = $4`
	tag, err := r.q.Exec(ctx, query, id,
		entity.InvalidacionEstadoPendiente, time.Now(), entity.InvalidacionEstadoEnProceso,
	)
	if err != nil {
		return fmt.Errorf("liberar invalidacion en proceso: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("liberar invalidacion %s: el evento no estaba en proceso", id)
	}
	return nil
}

// RegistrarResultado persiste el desenlace del evento tal como viene en la entidad.
func (r *InvalidacionRepo) RegistrarResultado(ctx context.Context, inv *entity.Invalidacion) error {
	query := `
		UPDATE invalidaciones
		SET estado = $2, codigo_msg = $3, descripcion_msg = $4,
		    observaciones = $5, fh_procesamiento = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.Estado, nullIfEmpty(inv.CodigoMsg), nullIfEmpty(inv.DescripcionMsg),
		nullIfEmpty(inv.Observaciones), inv.FhProcesamiento, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("registrar resultado invalidacion: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("registrar resultado invalidacion %s: evento no encontrado", inv.ID)
	}
	return nil
}
