package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// DTERepository persistencia del documento tributario electrónico. Todas las
// transiciones de estado son una única actualización condicional que revalida
// el precondición en el WHERE: nunca leer, mutar en memoria a través de dos
// llamadas de red y escribir sin revalidar.
type DTERepository interface {
	GetByID(ctx context.Context, id string) (*entity.DTE, error)

	// MarcarEnProceso toma el candado por documento: pasa de un estado
	// transmisible a EN_PROCESO. Devuelve false si otra petición ya tiene el
	// envío en vuelo (cero filas afectadas).
	MarcarEnProceso(ctx context.Context, id string) (bool, error)

	// LiberarEnProceso devuelve el documento a su estado previo cuando el
	// envío aborta antes de llegar a Hacienda (composición o firma fallida).
	// No toca el contador de intentos.
	LiberarEnProceso(ctx context.Context, id, estadoAnterior string) error

	// RegistrarAceptado aplica la transición Aceptado desde EN_PROCESO:
	// estado PROCESADO + sello, sin tocar intentos_envio.
	RegistrarAceptado(ctx context.Context, id, sello string) error

	// RegistrarRechazo aplica la transición Rechazado/Inalcanzable desde
	// EN_PROCESO: estado RECHAZADO_PENDIENTE e intentos_envio+1.
	RegistrarRechazo(ctx context.Context, id string) error

	// ReconciliarAceptado aplica la transición Aceptado desde un estado
	// pendiente (conciliación §consulta). Devuelve false si el documento ya no
	// estaba pendiente; el llamador debe releer y verificar el sello.
	ReconciliarAceptado(ctx context.Context, id, sello string) (bool, error)

	// RegistrarAnulado pasa el documento de PROCESADO a ANULADO. Devuelve
	// false si el documento ya no estaba en PROCESADO.
	RegistrarAnulado(ctx context.Context, id string) (bool, error)
}
