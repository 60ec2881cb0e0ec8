package mh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// ClienteFirmador invoca el servicio firmador local que convierte un
// documento JSON en un JWS firmado con el certificado del emisor.
type ClienteFirmador struct {
	httpClient *http.Client
	url        string
	nit        string
	password   string
	log        *logger.Logger
}

// NewClienteFirmador crea el cliente con el timeout configurado.
func NewClienteFirmador(url, nit, password string, timeout time.Duration, log *logger.Logger) *ClienteFirmador {
	return &ClienteFirmador{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		nit:        nit,
		password:   password,
		log:        log,
	}
}

type solicitudFirma struct {
	NIT         string `json:"nit"`
	Activo      bool   `json:"activo"`
	PasswordPri string `json:"passwordPri"`
	DteJson     any    `json:"dteJson"`
}

type respuestaFirmador struct {
	Status string          `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Firmar envía el documento al firmador y devuelve el JWS resultante.
// Cualquier falla, de transporte o reportada por el firmador, se traduce a
// ErrorFirma: el documento nunca salió hacia Hacienda.
func (c *ClienteFirmador) Firmar(ctx context.Context, documento any) (string, error) {
	payload, err := json.Marshal(solicitudFirma{
		NIT:         c.nit,
		Activo:      true,
		PasswordPri: c.password,
		DteJson:     documento,
	})
	if err != nil {
		return "", &domain.ErrorFirma{Mensaje: fmt.Sprintf("serializando solicitud: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", &domain.ErrorFirma{Mensaje: fmt.Sprintf("construyendo solicitud: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("firmador inalcanzable")
		return "", &domain.ErrorFirma{Mensaje: fmt.Sprintf("firmador inalcanzable: %v", err)}
	}
	defer resp.Body.Close()

	cuerpo, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &domain.ErrorFirma{Mensaje: fmt.Sprintf("leyendo respuesta del firmador: %v", err)}
	}

	var r respuestaFirmador
	if err := json.Unmarshal(cuerpo, &r); err != nil {
		return "", &domain.ErrorFirma{Mensaje: fmt.Sprintf("respuesta del firmador ilegible (HTTP %d)", resp.StatusCode)}
	}
	if r.Status != "OK" {
		return "", &domain.ErrorFirma{Mensaje: fmt.Sprintf("firmador respondió %s: %s", r.Status, strings.TrimSpace(string(r.Body)))}
	}

	// El body de un firmado exitoso es el JWS como cadena JSON.
	var jws string
	if err := json.Unmarshal(r.Body, &jws); err != nil || jws == "" {
		return "", &domain.ErrorFirma{Mensaje: "firmador respondió OK sin JWS en el cuerpo"}
	}
	return jws, nil
}
