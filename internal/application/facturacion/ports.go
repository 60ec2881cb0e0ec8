package facturacion

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/dte"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// Firmador puerto de salida hacia el servicio firmador externo. Devuelve el
// documento firmado (JWS compacto) o un fallo de firma; nunca toca estado
// persistido.
type Firmador interface {
	Firmar(ctx context.Context, documento any) (string, error)
}

// EnvioDTE sobre de transmisión al endpoint de recepción del MH.
type EnvioDTE struct {
	Ambiente         string
	IdEnvio          int
	Version          int
	TipoDte          string
	Documento        string // DTE firmado (JWS)
	CodigoGeneracion string // el mismo en cada reintento, para deduplicación del MH
}

// EnvioAnulacion sobre de transmisión al endpoint de anulación del MH.
type EnvioAnulacion struct {
	Ambiente  string
	IdEnvio   int
	Version   int
	Documento string // evento de invalidación firmado (JWS)
}

// ConsultaDTE parámetros de la consulta de estado ante el MH.
type ConsultaDTE struct {
	NitEmisor        string
	TipoDte          string
	CodigoGeneracion string
}

// Transmisor puerto de salida hacia la API del MH. Cada método clasifica la
// respuesta en un Resultado etiquetado; los fallos de transporte se devuelven
// como ResultadoInalcanzable, nunca como pánico ni como éxito parcial.
type Transmisor interface {
	Enviar(ctx context.Context, envio EnvioDTE) dte.Resultado
	Anular(ctx context.Context, envio EnvioAnulacion) dte.Resultado
	Consultar(ctx context.Context, consulta ConsultaDTE) dte.Resultado
}

// GeneradorPDF colaborador de presentación: representación gráfica del DTE.
type GeneradorPDF interface {
	GenerarComprobante(ctx context.Context, d *entity.DTE, venta *entity.Venta) ([]byte, error)
}

// EnviadorCorreo colaborador de notificación, fire-and-forget tras la
// aceptación. Un fallo de correo jamás afecta el estado del DTE.
type EnviadorCorreo interface {
	EnviarComprobante(destinatario, asunto, nombreArchivo string, pdf, dteJSON []byte) error
}

// AnulacionTxRunner ejecuta el cierre de una anulación aceptada en una única
// transacción: DTE padre a ANULADO + reversión de la venta + evento PROCESADO.
type AnulacionTxRunner interface {
	RunAnulacion(ctx context.Context, fn func(
		dteRepo repository.DTERepository,
		invRepo repository.InvalidacionRepository,
		ventaRepo repository.VentaRepository,
	) error) error
}
