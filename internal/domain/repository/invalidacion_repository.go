package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// InvalidacionRepository persistencia de los eventos de invalidación.
// Append-only: un rechazo terminal nunca se reutiliza, se crea un evento nuevo
// con código de generación propio.
type InvalidacionRepository interface {
	// GetVigente devuelve la invalidación no terminal (PENDIENTE o EN_PROCESO)
	// del DTE, o nil si no existe. Su código de generación se reutiliza en el
	// siguiente intento.
	GetVigente(ctx context.Context, dteID string) (*entity.Invalidacion, error)

	// GetAceptada devuelve la invalidación PROCESADO del DTE, o nil. A lo sumo
	// existe una por documento.
	GetAceptada(ctx context.Context, dteID string) (*entity.Invalidacion, error)

	// Crear persiste un evento nuevo en PENDIENTE. Devuelve false sin crear
	// nada si el DTE ya tiene un evento no terminal: dos peticiones que leen
	// "sin vigente" a la vez no pueden acuñar dos eventos para el mismo
	// documento.
	Crear(ctx context.Context, inv *entity.Invalidacion) (bool, error)

	// MarcarEnProceso toma el candado del evento: PENDIENTE → EN_PROCESO.
	// Devuelve false si otra petición ya tiene la anulación en vuelo.
	MarcarEnProceso(ctx context.Context, id string) (bool, error)

	// LiberarEnProceso devuelve el evento a PENDIENTE tras un aborto previo al
	// envío o un fallo de comunicación; el código queda reutilizable.
	LiberarEnProceso(ctx context.Context, id string) error

	// RegistrarResultado persiste el desenlace del evento (estado, código de
	// mensaje, observaciones unidas y fecha de procesamiento de Hacienda).
	RegistrarResultado(ctx context.Context, inv *entity.Invalidacion) error
}
