package dto

import (
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// DTEResponse estado del documento para el cliente HTTP.
type DTEResponse struct {
	VentaID          string `json:"ventaId"`
	TipoDte          string `json:"tipoDte"`
	CodigoGeneracion string `json:"codigoGeneracion"`
	NumeroControl    string `json:"numeroControl"`
	Estado           string `json:"estado"`
	SelloRecibido    string `json:"selloRecibido,omitempty"`
	IntentosEnvio    int    `json:"intentosEnvio"`
}

// ToDTEResponse mapea la entidad a su representación HTTP.
func ToDTEResponse(d *entity.DTE) *DTEResponse {
	return &DTEResponse{
		VentaID:          d.ID,
		TipoDte:          d.TipoDte,
		CodigoGeneracion: d.CodigoGeneracion,
		NumeroControl:    d.NumeroControl,
		Estado:           d.Estado,
		SelloRecibido:    d.SelloRecibido,
		IntentosEnvio:    d.IntentosEnvio,
	}
}

// AnularRequest entrada de la invalidación de un DTE aceptado.
type AnularRequest struct {
	TipoAnulacion        int    `json:"tipoAnulacion"` // CAT-024: 1, 2 o 3
	Motivo               string `json:"motivo"`
	ResponsableNombre    string `json:"responsableNombre"`
	ResponsableDocumento string `json:"responsableDocumento"`
}

// InvalidacionResponse estado del evento de invalidación.
type InvalidacionResponse struct {
	ID               string     `json:"id"`
	VentaID          string     `json:"ventaId"`
	CodigoGeneracion string     `json:"codigoGeneracion"`
	Estado           string     `json:"estado"`
	CodigoMsg        string     `json:"codigoMsg,omitempty"`
	DescripcionMsg   string     `json:"descripcionMsg,omitempty"`
	Observaciones    string     `json:"observaciones,omitempty"`
	FhProcesamiento  *time.Time `json:"fhProcesamiento,omitempty"`
}

// ToInvalidacionResponse mapea el evento a su representación HTTP.
func ToInvalidacionResponse(inv *entity.Invalidacion) *InvalidacionResponse {
	return &InvalidacionResponse{
		ID:               inv.ID,
		VentaID:          inv.DteID,
		CodigoGeneracion: inv.CodigoGeneracion,
		Estado:           inv.Estado,
		CodigoMsg:        inv.CodigoMsg,
		DescripcionMsg:   inv.DescripcionMsg,
		Observaciones:    inv.Observaciones,
		FhProcesamiento:  inv.FhProcesamiento,
	}
}

// ConsultaResponse resultado de la conciliación contra Hacienda.
type ConsultaResponse struct {
	DTE            *DTEResponse `json:"dte"`
	EstadoHacienda string       `json:"estadoHacienda,omitempty"` // código de mensaje reportado por el MH
	Reconciliado   bool         `json:"reconciliado"`             // true si esta consulta mutó el estado local
}

// ToConsultaResponse mapea el desenlace de la consulta.
func ToConsultaResponse(d *entity.DTE, codigoMsg string, reconciliado bool) *ConsultaResponse {
	return &ConsultaResponse{
		DTE:            ToDTEResponse(d),
		EstadoHacienda: codigoMsg,
		Reconciliado:   reconciliado,
	}
}
