package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida del DTE ante el Ministerio de Hacienda.
const (
	DTEEstadoPendienteFirma     = "PENDIENTE_FIRMA"     // Creado junto con la venta, aún sin firmar
	DTEEstadoPendienteEnvio     = "PENDIENTE_ENVIO"     // Pasó por un intento de emisión, sin envíos que llegaran a Hacienda
	DTEEstadoEnProceso          = "EN_PROCESO"          // Marcador transitorio: hay un envío en vuelo
	DTEEstadoProcesado          = "PROCESADO"           // Aceptado por Hacienda (sello recibido)
	DTEEstadoRechazadoPendiente = "RECHAZADO_PENDIENTE" // Rechazo o fallo de comunicación; reintentable
	DTEEstadoAnulado            = "ANULADO"             // Invalidación aceptada por Hacienda
)

// Tipos de DTE soportados (catálogo CAT-002 MH).
const (
	TipoDTEFactura     = "01"
	TipoDTENotaCredito = "05"
)

// DTE representa el documento tributario electrónico de una venta (relación 1:1).
type DTE struct {
	ID               string // mismo ID de la venta
	TipoDte          string
	CodigoGeneracion string // UUID en mayúsculas; inmutable una vez transmitido
	NumeroControl    string // correlativo DTE-XX-XXXXYYYY-NNNNNNNNNNNNNNN
	Estado           string
	SelloRecibido    string // sello de recepción MH; solo con estado PROCESADO o ANULADO
	IntentosEnvio    int    // envíos que llegaron a Hacienda con rechazo o sin respuesta
	NitEmisor        string
	TotalIva         decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Transmisible indica si el DTE admite un nuevo intento de transmisión.
func (d *DTE) Transmisible() bool {
	switch d.Estado {
	case DTEEstadoPendienteFirma, DTEEstadoPendienteEnvio, DTEEstadoRechazadoPendiente:
		return true
	}
	return false
}

// EstadoPendiente devuelve el estado de reposo según el contador de intentos:
// RECHAZADO_PENDIENTE solo se distingue de PENDIENTE_ENVIO por un contador
// mayor que cero.
func EstadoPendiente(intentos int) string {
	if intentos > 0 {
		return DTEEstadoRechazadoPendiente
	}
	return DTEEstadoPendienteEnvio
}
