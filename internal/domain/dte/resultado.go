// Package dte contiene la máquina de estados del documento tributario
// electrónico: el resultado etiquetado de un envío a Hacienda y la transición
// durable que ese resultado produce. Todo es puro; la persistencia la aplica
// la capa de aplicación con actualizaciones condicionales.
package dte

import "time"

// TipoResultado discrimina la respuesta de Hacienda a un envío o consulta.
type TipoResultado int

const (
	// ResultadoAceptado estado PROCESADO con sello y código de mensaje aceptado.
	ResultadoAceptado TipoResultado = iota
	// ResultadoRechazado rechazo de negocio: hubo respuesta, pero sin sello válido.
	ResultadoRechazado
	// ResultadoInalcanzable fallo de transporte, timeout o respuesta inutilizable.
	ResultadoInalcanzable
)

// Resultado es el resultado etiquetado de una operación contra Hacienda.
// Representa explícitamente cada forma de respuesta en lugar de dejar fluir
// JSON arbitrario hacia la persistencia.
type Resultado struct {
	Tipo            TipoResultado
	Sello           string // solo con ResultadoAceptado
	CodigoMsg       string
	DescripcionMsg  string
	Observaciones   string // observaciones ya unidas en un solo texto
	FhProcesamiento *time.Time
	Causa           error // solo con ResultadoInalcanzable
}

// Aceptado construye un Resultado aceptado con el sello de recepción.
func Aceptado(sello, codigoMsg, descripcion string) Resultado {
	return Resultado{Tipo: ResultadoAceptado, Sello: sello, CodigoMsg: codigoMsg, DescripcionMsg: descripcion}
}

// Rechazado construye un Resultado de rechazo de negocio.
func Rechazado(codigoMsg, descripcion, observaciones string) Resultado {
	return Resultado{Tipo: ResultadoRechazado, CodigoMsg: codigoMsg, DescripcionMsg: descripcion, Observaciones: observaciones}
}

// Inalcanzable construye un Resultado de fallo de comunicación.
func Inalcanzable(causa error) Resultado {
	return Resultado{Tipo: ResultadoInalcanzable, Causa: causa}
}
