package dto

// ErrorResponse cuerpo de error HTTP. Code distingue la clase del fallo para
// que el operador sepa qué es reintentable y qué exige conciliación manual.
type ErrorResponse struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Observaciones string `json:"observaciones,omitempty"`
}
