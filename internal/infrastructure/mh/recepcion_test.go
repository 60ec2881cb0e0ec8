package mh_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain/dte"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/mh"
)

func envioDePrueba() facturacion.EnvioDTE {
	return facturacion.EnvioDTE{
		Ambiente:         "00",
		IdEnvio:          1234567,
		Version:          1,
		TipoDte:          "01",
		Documento:        "eyJ.dte.firmado",
		CodigoGeneracion: "A6E2F8D0-1111-2222-3333-444455556666",
	}
}

// Aceptado exige las tres condiciones a la vez: PROCESADO + sello + código
// dentro de los aceptados.
func TestRecepcion_Enviar_Aceptado(t *testing.T) {
	var ruta, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ruta = r.URL.Path
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{
			"estado": "PROCESADO",
			"selloRecibido": "2024ABCDEF1234567890",
			"codigoMsg": "001",
			"descripcionMsg": "RECIBIDO",
			"fhProcesamiento": "14/03/2025 10:31:02"
		}`))
	}))
	defer srv.Close()

	c := mh.NewClienteRecepcion(srv.URL, "token-mh", 5*time.Second, testLog())
	r := c.Enviar(context.Background(), envioDePrueba())

	assert.Equal(t, "/fesv/recepciondte", ruta)
	assert.Equal(t, "token-mh", auth)
	require.Equal(t, dte.ResultadoAceptado, r.Tipo)
	assert.Equal(t, "2024ABCDEF1234567890", r.Sello)
	assert.Equal(t, "001", r.CodigoMsg)
	require.NotNil(t, r.FhProcesamiento)
	assert.Equal(t, 2025, r.FhProcesamiento.Year())
}

// Estado PROCESADO sin sello NO es aceptación: falta la credencial.
func TestRecepcion_ProcesadoSinSello_NoEsAceptado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"estado":"PROCESADO","selloRecibido":null,"codigoMsg":"001","descripcionMsg":"RECIBIDO"}`))
	}))
	defer srv.Close()

	c := mh.NewClienteRecepcion(srv.URL, "token", 5*time.Second, testLog())
	r := c.Enviar(context.Background(), envioDePrueba())
	assert.Equal(t, dte.ResultadoRechazado, r.Tipo)
}

// Código de mensaje fuera de los aceptados: tampoco es aceptación.
func TestRecepcion_CodigoNoAceptado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"estado":"PROCESADO","selloRecibido":"SELLO","codigoMsg":"099","descripcionMsg":"OBSERVADO"}`))
	}))
	defer srv.Close()

	c := mh.NewClienteRecepcion(srv.URL, "token", 5*time.Second, testLog())
	r := c.Enviar(context.Background(), envioDePrueba())
	assert.Equal(t, dte.ResultadoRechazado, r.Tipo)
}

// Rechazo con observaciones: se unen en un solo texto legible.
func TestRecepcion_Rechazado_ObservacionesUnidas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{
			"estado": "RECHAZADO",
			"codigoMsg": "004",
			"descripcionMsg": "DTE con errores",
			"observaciones": ["NIT receptor inválido", "total no cuadra"]
		}`))
	}))
	defer srv.Close()

	c := mh.NewClienteRecepcion(srv.URL, "token", 5*time.Second, testLog())
	r := c.Enviar(context.Background(), envioDePrueba())

	require.Equal(t, dte.ResultadoRechazado, r.Tipo,
		"un HTTP no-2xx con cuerpo legible sigue siendo una respuesta del MH")
	assert.Equal(t, "004", r.CodigoMsg)
	assert.Equal(t, "NIT receptor inválido; total no cuadra", r.Observaciones)
}

// Transporte caído o respuesta ilegible: inalcanzable, nunca rechazo.
func TestRecepcion_Inalcanzable(t *testing.T) {
	t.Run("servidor caído", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		c := mh.NewClienteRecepcion(srv.URL, "token", time.Second, testLog())
		r := c.Enviar(context.Background(), envioDePrueba())
		assert.Equal(t, dte.ResultadoInalcanzable, r.Tipo)
		assert.Error(t, r.Causa)
	})

	t.Run("respuesta ilegible", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>Bad Gateway</html>`))
		}))
		defer srv.Close()

		c := mh.NewClienteRecepcion(srv.URL, "token", 5*time.Second, testLog())
		r := c.Enviar(context.Background(), envioDePrueba())
		assert.Equal(t, dte.ResultadoInalcanzable, r.Tipo,
			"un cuerpo ilegible no acredita ni aceptación ni rechazo")
	})

	t.Run("timeout por contexto", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"estado":"PROCESADO"}`))
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		c := mh.NewClienteRecepcion(srv.URL, "token", 5*time.Second, testLog())
		r := c.Enviar(ctx, envioDePrueba())
		assert.Equal(t, dte.ResultadoInalcanzable, r.Tipo)
	})
}

// Fecha de procesamiento con formato inesperado: tolerante, sin fecha.
func TestRecepcion_FechaIlegible_EsTolerante(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"estado":"PROCESADO","selloRecibido":"SELLO","codigoMsg":"002","fhProcesamiento":"no-es-fecha"}`))
	}))
	defer srv.Close()

	c := mh.NewClienteRecepcion(srv.URL, "token", 5*time.Second, testLog())
	r := c.Enviar(context.Background(), envioDePrueba())
	require.Equal(t, dte.ResultadoAceptado, r.Tipo)
	assert.Nil(t, r.FhProcesamiento)
}

// Anular y Consultar pegan a sus rutas propias con el mismo clasificador.
func TestRecepcion_RutasAnularYConsultar(t *testing.T) {
	var rutas []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rutas = append(rutas, r.URL.Path)
		var cuerpo map[string]any
		_ = json.NewDecoder(r.Body).Decode(&cuerpo)
		_, _ = w.Write([]byte(`{"estado":"PROCESADO","selloRecibido":"SELLO","codigoMsg":"001"}`))
	}))
	defer srv.Close()

	c := mh.NewClienteRecepcion(srv.URL, "token", 5*time.Second, testLog())

	r := c.Anular(context.Background(), facturacion.EnvioAnulacion{Ambiente: "00", IdEnvio: 1, Version: 2, Documento: "jws"})
	assert.Equal(t, dte.ResultadoAceptado, r.Tipo)

	r = c.Consultar(context.Background(), facturacion.ConsultaDTE{NitEmisor: "06142909201012", TipoDte: "01", CodigoGeneracion: "COD"})
	assert.Equal(t, dte.ResultadoAceptado, r.Tipo)

	require.Equal(t, []string{"/fesv/anulardte", "/fesv/recepcion/consultadte"}, rutas)
}
