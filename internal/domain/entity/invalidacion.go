package entity

import "time"

// Estados de un evento de invalidación.
const (
	InvalidacionEstadoPendiente = "PENDIENTE"  // Creada, sin resultado terminal; el código se reutiliza
	InvalidacionEstadoEnProceso = "EN_PROCESO" // Envío de anulación en vuelo
	InvalidacionEstadoProcesado = "PROCESADO"  // Aceptada; el DTE padre pasa a ANULADO
	InvalidacionEstadoRechazado = "RECHAZADO"  // Terminal; un reintento exige código nuevo
)

// Invalidacion es el evento que revoca un DTE aceptado. Tiene identidad propia
// (codigo_generacion independiente del DTE original) y nunca se edita en sitio:
// un rechazo terminal obliga a crear un evento nuevo.
type Invalidacion struct {
	ID                   string
	DteID                string
	CodigoGeneracion     string // UUID propio, espacio de nombres independiente del DTE
	TipoAnulacion        int    // catálogo CAT-024 MH: 1 error info, 2 rescindir operación, 3 otro
	MotivoAnulacion      string
	ResponsableNombre    string
	ResponsableDocumento string
	Estado               string
	CodigoMsg            string
	DescripcionMsg       string
	Observaciones        string // observaciones de Hacienda ya unidas en un solo texto
	FhProcesamiento      *time.Time
	Ambiente             string
	Version              int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
