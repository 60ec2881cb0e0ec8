package mh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain/dte"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// rutas de la API de recepción del MH.
const (
	rutaRecepcion = "/fesv/recepciondte"
	rutaAnulacion = "/fesv/anulardte"
	rutaConsulta  = "/fesv/recepcion/consultadte"
)

// ClienteRecepcion implementa el puerto Transmisor contra la API de recepción
// del Ministerio de Hacienda. Cada método devuelve un resultado etiquetado:
// los fallos de transporte y las respuestas ilegibles se clasifican como
// inalcanzable, porque no acreditan ni aceptación ni rechazo.
type ClienteRecepcion struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *logger.Logger
}

// NewClienteRecepcion crea el cliente con el timeout configurado para el
// ambiente del MH.
func NewClienteRecepcion(baseURL, token string, timeout time.Duration, log *logger.Logger) *ClienteRecepcion {
	return &ClienteRecepcion{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		log:        log,
	}
}

type envioRecepcion struct {
	Ambiente         string `json:"ambiente"`
	IdEnvio          int    `json:"idEnvio"`
	Version          int    `json:"version"`
	TipoDte          string `json:"tipoDte"`
	Documento        string `json:"documento"`
	CodigoGeneracion string `json:"codigoGeneracion"`
}

type envioAnulacion struct {
	Ambiente  string `json:"ambiente"`
	IdEnvio   int    `json:"idEnvio"`
	Version   int    `json:"version"`
	Documento string `json:"documento"`
}

type consultaEstado struct {
	NitEmisor        string `json:"nitEmisor"`
	Tdte             string `json:"tdte"`
	CodigoGeneracion string `json:"codigoGeneracion"`
}

// Enviar transmite un DTE firmado al endpoint de recepción.
func (c *ClienteRecepcion) Enviar(ctx context.Context, envio facturacion.EnvioDTE) dte.Resultado {
	return c.post(ctx, rutaRecepcion, envioRecepcion{
		Ambiente:         envio.Ambiente,
		IdEnvio:          envio.IdEnvio,
		Version:          envio.Version,
		TipoDte:          envio.TipoDte,
		Documento:        envio.Documento,
		CodigoGeneracion: envio.CodigoGeneracion,
	})
}

// Anular transmite un evento de invalidación firmado.
func (c *ClienteRecepcion) Anular(ctx context.Context, envio facturacion.EnvioAnulacion) dte.Resultado {
	return c.post(ctx, rutaAnulacion, envioAnulacion{
		Ambiente:  envio.Ambiente,
		IdEnvio:   envio.IdEnvio,
		Version:   envio.Version,
		Documento: envio.Documento,
	})
}

// Consultar pregunta al MH el estado registrado de un DTE ya transmitido.
func (c *ClienteRecepcion) Consultar(ctx context.Context, consulta facturacion.ConsultaDTE) dte.Resultado {
	return c.post(ctx, rutaConsulta, consultaEstado{
		NitEmisor:        consulta.NitEmisor,
		Tdte:             consulta.TipoDte,
		CodigoGeneracion: consulta.CodigoGeneracion,
	})
}

// post serializa el cuerpo, ejecuta la llamada y clasifica la respuesta. Un
// HTTP no-2xx con cuerpo JSON legible sigue siendo una respuesta del MH y se
// clasifica como tal; solo lo ilegible o no entregado es inalcanzable.
func (c *ClienteRecepcion) post(ctx context.Context, ruta string, cuerpo any) dte.Resultado {
	payload, err := json.Marshal(cuerpo)
	if err != nil {
		return dte.Inalcanzable(fmt.Errorf("serializando envío a %s: %w", ruta, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ruta, bytes.NewReader(payload))
	if err != nil {
		return dte.Inalcanzable(fmt.Errorf("construyendo solicitud a %s: %w", ruta, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("ruta", ruta).Msg("MH inalcanzable")
		return dte.Inalcanzable(fmt.Errorf("llamando a %s: %w", ruta, err))
	}
	defer resp.Body.Close()

	datos, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return dte.Inalcanzable(fmt.Errorf("leyendo respuesta de %s: %w", ruta, err))
	}

	var r respuestaRecepcion
	if err := json.Unmarshal(datos, &r); err != nil || r.Estado == "" {
		c.log.Error().Int("status", resp.StatusCode).Str("ruta", ruta).Msg("respuesta del MH ilegible")
		return dte.Inalcanzable(fmt.Errorf("respuesta ilegible de %s (HTTP %d)", ruta, resp.StatusCode))
	}
	return clasificar(&r)
}
