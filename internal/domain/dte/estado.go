package dte

import (
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// Transicion describe el efecto durable de aplicar un Resultado sobre un DTE.
// Cada incremento del contador de intentos va emparejado con una transición
// con nombre; nunca es un efecto lateral incidental de otra escritura.
type Transicion struct {
	Estado             string
	Sello              string
	IncrementaIntentos bool
	NoOp               bool // el documento ya estaba en el estado destino con el mismo sello
}

// Aplicar calcula la transición que corresponde a un Resultado de Hacienda y
// el error de clase que debe propagarse al llamador una vez persistida.
//
// Reglas:
//   - Aceptado  → PROCESADO con sello; el contador de intentos no cambia.
//     Re-aplicar sobre un documento ya aceptado con el mismo sello es un NoOp;
//     con un sello distinto es una violación de integridad fatal.
//   - Rechazado → RECHAZADO_PENDIENTE, intentos+1, ErrorRechazo con el payload
//     literal de Hacienda.
//   - Inalcanzable → RECHAZADO_PENDIENTE, intentos+1, ErrorComunicacion
//     (clase distinguible del rechazo de negocio).
func Aplicar(d *entity.DTE, r Resultado) (Transicion, error) {
	switch r.Tipo {
	case ResultadoAceptado:
		if d.SelloRecibido != "" {
			if d.SelloRecibido == r.Sello {
				return Transicion{Estado: d.Estado, Sello: d.SelloRecibido, NoOp: true}, nil
			}
			return Transicion{}, &domain.ErrorIntegridad{
				SelloLocal:    d.SelloRecibido,
				SelloHacienda: r.Sello,
			}
		}
		return Transicion{Estado: entity.DTEEstadoProcesado, Sello: r.Sello}, nil

	case ResultadoRechazado:
		return Transicion{Estado: entity.DTEEstadoRechazadoPendiente, IncrementaIntentos: true},
			&domain.ErrorRechazo{
				Codigo:        r.CodigoMsg,
				Descripcion:   r.DescripcionMsg,
				Observaciones: r.Observaciones,
			}

	default: // ResultadoInalcanzable
		return Transicion{Estado: entity.DTEEstadoRechazadoPendiente, IncrementaIntentos: true},
			&domain.ErrorComunicacion{Causa: r.Causa}
	}
}

// SelloCoherente verifica el invariante central del DTE: hay sello si y solo
// si el documento está aceptado (PROCESADO) o anulado tras aceptación.
func SelloCoherente(d *entity.DTE) bool {
	conSello := d.SelloRecibido != ""
	switch d.Estado {
	case entity.DTEEstadoProcesado, entity.DTEEstadoAnulado:
		return conSello
	default:
		return !conSello
	}
}
