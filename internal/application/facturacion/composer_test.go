package facturacion_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/hacienda"
)

// ──────────────────────────────────────────────────────────────────────────────
// ComponerDTE
// ──────────────────────────────────────────────────────────────────────────────

func TestComponerDTE_CuerpoCompleto(t *testing.T) {
	c := facturacion.NewComposer(testMHConfig())
	d := testDTE(entity.DTEEstadoPendienteEnvio, 0)

	cuerpo, err := c.ComponerDTE(d, testVenta())
	require.NoError(t, err)

	assert.Equal(t, hacienda.VersionFactura, cuerpo.Identificacion.Version)
	assert.Equal(t, "00", cuerpo.Identificacion.Ambiente)
	assert.Equal(t, testCodGen, cuerpo.Identificacion.CodigoGeneracion)
	assert.Equal(t, testNumCtrl, cuerpo.Identificacion.NumeroControl)
	assert.Equal(t, "2025-03-14", cuerpo.Identificacion.FecEmi)
	assert.Equal(t, "USD", cuerpo.Identificacion.TipoMoneda)

	// El NIT del emisor viaja solo con dígitos.
	assert.Equal(t, "06142909201012", cuerpo.Emisor.Nit)

	// Receptor con DUI homologado: tipo "13" y documento solo con dígitos.
	assert.Equal(t, "13", cuerpo.Receptor.TipoDocumento)
	assert.Equal(t, "045678903", cuerpo.Receptor.NumDocumento)

	require.Len(t, cuerpo.CuerpoDocumento, 1)
	assert.Equal(t, 1, cuerpo.CuerpoDocumento[0].NumItem)
	assert.Equal(t, 10.00, cuerpo.CuerpoDocumento[0].VentaGravada)

	assert.Equal(t, 11.30, cuerpo.Resumen.TotalPagar)
	assert.Equal(t, 1, cuerpo.Resumen.CondicionOperacion)
}

// Los montos se redondean al centavo en la composición; un precio con más
// decimales no atraviesa el documento.
func TestComponerDTE_RedondeoAlCentavo(t *testing.T) {
	c := facturacion.NewComposer(testMHConfig())
	venta := testVenta()
	venta.Items[0].PrecioUnitario = decimal.NewFromFloat(3.14159)
	venta.TotalIva = decimal.NewFromFloat(1.23456)

	cuerpo, err := c.ComponerDTE(testDTE(entity.DTEEstadoPendienteEnvio, 0), venta)
	require.NoError(t, err)

	assert.Equal(t, 3.14, cuerpo.CuerpoDocumento[0].PrecioUni)
	assert.Equal(t, 1.23, cuerpo.Resumen.TotalIva)
}

// La composición es determinista: misma venta, mismo resultado byte a byte.
func TestComponerDTE_Determinista(t *testing.T) {
	c := facturacion.NewComposer(testMHConfig())
	d := testDTE(entity.DTEEstadoPendienteEnvio, 0)

	a, err := c.ComponerDTE(d, testVenta())
	require.NoError(t, err)
	b, err := c.ComponerDTE(d, testVenta())
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.Equal(t, string(ja), string(jb))
}

// Datos de origen incompletos cortan la composición con la clase abortiva,
// antes de cualquier firma o llamada de red.
func TestComponerDTE_DatosIncompletos(t *testing.T) {
	c := facturacion.NewComposer(testMHConfig())
	d := testDTE(entity.DTEEstadoPendienteEnvio, 0)

	casos := map[string]func(*entity.Venta){
		"sin nombre de receptor":          func(v *entity.Venta) { v.ClienteNombre = "" },
		"sin documento de receptor":       func(v *entity.Venta) { v.ClienteDocumento = "" },
		"DUI con verificador incorrecto":  func(v *entity.Venta) { v.ClienteDocumento = "04567890-1" },
		"documento de longitud imposible": func(v *entity.Venta) { v.ClienteDocumento = "12345" },
		"sin líneas":                      func(v *entity.Venta) { v.Items = nil },
	}
	for nombre, mutar := range casos {
		t.Run(nombre, func(t *testing.T) {
			venta := testVenta()
			mutar(venta)
			_, err := c.ComponerDTE(d, venta)
			assert.ErrorIs(t, err, domain.ErrDatosIncompletos)
		})
	}
}

func TestComponerDTE_EmisorIncompleto(t *testing.T) {
	cfg := testMHConfig()
	cfg.Emisor.NRC = ""
	c := facturacion.NewComposer(cfg)

	_, err := c.ComponerDTE(testDTE(entity.DTEEstadoPendienteEnvio, 0), testVenta())
	assert.ErrorIs(t, err, domain.ErrDatosIncompletos)
}

// Un receptor con NIT de 14 dígitos viaja como tipo "36".
func TestComponerDTE_ReceptorConNIT(t *testing.T) {
	c := facturacion.NewComposer(testMHConfig())
	venta := testVenta()
	venta.ClienteDocumento = "0614-110589-102-3"

	cuerpo, err := c.ComponerDTE(testDTE(entity.DTEEstadoPendienteEnvio, 0), venta)
	require.NoError(t, err)
	assert.Equal(t, "36", cuerpo.Receptor.TipoDocumento)
	assert.Equal(t, "06141105891023", cuerpo.Receptor.NumDocumento)
}

// ──────────────────────────────────────────────────────────────────────────────
// ComponerInvalidacion
// ──────────────────────────────────────────────────────────────────────────────

func testInvalidacion() *entity.Invalidacion {
	return &entity.Invalidacion{
		ID:                   "inv-1",
		DteID:                testVentaID,
		CodigoGeneracion:     "B7F3A9E1-9999-8888-7777-666655554444",
		TipoAnulacion:        2,
		MotivoAnulacion:      "Operación rescindida por el cliente",
		ResponsableNombre:    "Carlos López",
		ResponsableDocumento: "04567890-3",
		Estado:               entity.InvalidacionEstadoPendiente,
	}
}

// El evento referencia el DTE original tal cual: código, sello y número de
// control se copian sin regenerarse, y el evento lleva su código propio.
func TestComponerInvalidacion_ReferenciasInmutables(t *testing.T) {
	c := facturacion.NewComposer(testMHConfig())
	d := testDTE(entity.DTEEstadoProcesado, 1)
	d.SelloRecibido = testSello
	inv := testInvalidacion()

	cuerpo, err := c.ComponerInvalidacion(d, inv, testVenta())
	require.NoError(t, err)

	assert.Equal(t, hacienda.VersionInvalidacion, cuerpo.Identificacion.Version)
	assert.Equal(t, inv.CodigoGeneracion, cuerpo.Identificacion.CodigoGeneracion,
		"la cabecera lleva el código del evento")
	assert.NotEqual(t, cuerpo.Identificacion.CodigoGeneracion, cuerpo.Documento.CodigoGeneracion,
		"el evento y el documento anulado tienen identidades distintas")

	assert.Equal(t, testCodGen, cuerpo.Documento.CodigoGeneracion)
	assert.Equal(t, testSello, cuerpo.Documento.SelloRecibido)
	assert.Equal(t, testNumCtrl, cuerpo.Documento.NumeroControl)
	assert.Equal(t, 1.30, cuerpo.Documento.MontoIva)

	assert.Equal(t, 2, cuerpo.Motivo.TipoAnulacion)
	assert.Equal(t, "Carlos López", cuerpo.Motivo.NombreResponsable)
	assert.Equal(t, "045678903", cuerpo.Motivo.NumDocResponsable)
}

// Sin sello no hay nada que invalidar: el DTE no fue aceptado.
func TestComponerInvalidacion_SinSello(t *testing.T) {
	c := facturacion.NewComposer(testMHConfig())
	d := testDTE(entity.DTEEstadoPendienteEnvio, 0)

	_, err := c.ComponerInvalidacion(d, testInvalidacion(), testVenta())
	assert.ErrorIs(t, err, domain.ErrDatosIncompletos)
}

func TestComponerInvalidacion_SinMotivoOResponsable(t *testing.T) {
	c := facturacion.NewComposer(testMHConfig())
	d := testDTE(entity.DTEEstadoProcesado, 0)
	d.SelloRecibido = testSello

	inv := testInvalidacion()
	inv.MotivoAnulacion = ""
	_, err := c.ComponerInvalidacion(d, inv, testVenta())
	assert.ErrorIs(t, err, domain.ErrDatosIncompletos)

	inv = testInvalidacion()
	inv.ResponsableNombre = ""
	_, err = c.ComponerInvalidacion(d, inv, testVenta())
	assert.ErrorIs(t, err, domain.ErrDatosIncompletos)
}

// El documento del responsable pasa por la misma validación de verificador
// que el del receptor.
func TestComponerInvalidacion_ResponsableConDocumentoInvalido(t *testing.T) {
	c := facturacion.NewComposer(testMHConfig())
	d := testDTE(entity.DTEEstadoProcesado, 0)
	d.SelloRecibido = testSello

	inv := testInvalidacion()
	inv.ResponsableDocumento = "04567890-1"
	_, err := c.ComponerInvalidacion(d, inv, testVenta())
	assert.ErrorIs(t, err, domain.ErrDatosIncompletos)
}
