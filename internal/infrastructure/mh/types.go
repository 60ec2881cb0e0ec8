// Package mh implementa los clientes HTTP hacia el servicio firmador y la API
// de recepción del Ministerio de Hacienda. Cada respuesta externa se
// representa como un tipo explícito y se clasifica en un resultado etiquetado,
// de modo que un campo ausente o inesperado falla con un error con nombre en
// lugar de fluir en silencio hacia la persistencia.
package mh

import (
	"strings"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain/dte"
)

// Estados reportados por la API de recepción del MH.
const (
	estadoProcesado = "PROCESADO"
	estadoRechazado = "RECHAZADO"
)

// códigos de mensaje que acompañan a una recepción aceptada.
var codigosAceptados = map[string]bool{
	"001": true,
	"002": true,
}

// respuestaRecepcion forma común de las respuestas de recepción, anulación y
// consulta del MH.
type respuestaRecepcion struct {
	Estado          string   `json:"estado"`
	SelloRecibido   *string  `json:"selloRecibido"`
	CodigoMsg       string   `json:"codigoMsg"`
	DescripcionMsg  string   `json:"descripcionMsg"`
	Observaciones   []string `json:"observaciones"`
	FhProcesamiento string   `json:"fhProcesamiento"`
}

// clasificar convierte la respuesta del MH en el resultado etiquetado del
// dominio. Aceptado exige las tres condiciones a la vez: estado PROCESADO,
// sello presente y código de mensaje dentro de los aceptados.
func clasificar(r *respuestaRecepcion) dte.Resultado {
	if r.Estado == estadoProcesado && r.SelloRecibido != nil && *r.SelloRecibido != "" && codigosAceptados[r.CodigoMsg] {
		res := dte.Aceptado(*r.SelloRecibido, r.CodigoMsg, r.DescripcionMsg)
		res.FhProcesamiento = parsearFecha(r.FhProcesamiento)
		return res
	}
	res := dte.Rechazado(r.CodigoMsg, r.DescripcionMsg, dte.UnirObservaciones(r.Observaciones))
	res.FhProcesamiento = parsearFecha(r.FhProcesamiento)
	return res
}

// parsearFecha interpreta el fhProcesamiento del MH (dd/mm/aaaa hh:mm:ss).
// Tolerante: un formato inesperado produce nil, nunca error.
func parsearFecha(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("02/01/2006 15:04:05", s)
	if err != nil {
		return nil
	}
	return &t
}
