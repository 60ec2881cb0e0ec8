package facturacion_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/dte"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria de los puertos del caso de uso. Imitan la semántica de las
// actualizaciones condicionales de PostgreSQL: cada transición revalida el
// estado de partida y reporta si afectó una fila.
// ──────────────────────────────────────────────────────────────────────────────

type fakeDTERepo struct {
	mu   sync.Mutex
	dtes map[string]*entity.DTE

	// fallos inyectables por operación
	failRegistrarAceptado error
	failMarcarEnProceso   error

	llamadasRegistrarAceptado int
}

func newFakeDTERepo(dtes ...*entity.DTE) *fakeDTERepo {
	m := make(map[string]*entity.DTE)
	for _, d := range dtes {
		m[d.ID] = d
	}
	return &fakeDTERepo{dtes: m}
}

func (f *fakeDTERepo) GetByID(_ context.Context, id string) (*entity.DTE, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dtes[id]
	if !ok {
		return nil, nil
	}
	copia := *d
	return &copia, nil
}

func (f *fakeDTERepo) MarcarEnProceso(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMarcarEnProceso != nil {
		return false, f.failMarcarEnProceso
	}
	d, ok := f.dtes[id]
	if !ok || !d.Transmisible() {
		return false, nil
	}
	d.Estado = entity.DTEEstadoEnProceso
	return true, nil
}

func (f *fakeDTERepo) LiberarEnProceso(_ context.Context, id, estadoAnterior string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dtes[id]
	if !ok || d.Estado != entity.DTEEstadoEnProceso {
		return fmt.Errorf("liberar dte %s: el documento no estaba en proceso", id)
	}
	d.Estado = estadoAnterior
	return nil
}

func (f *fakeDTERepo) RegistrarAceptado(_ context.Context, id, sello string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.llamadasRegistrarAceptado++
	if f.failRegistrarAceptado != nil {
		return f.failRegistrarAceptado
	}
	d, ok := f.dtes[id]
	if !ok || d.Estado != entity.DTEEstadoEnProceso {
		return fmt.Errorf("registrar dte aceptado %s: el documento no estaba en proceso", id)
	}
	d.Estado = entity.DTEEstadoProcesado
	d.SelloRecibido = sello
	return nil
}

func (f *fakeDTERepo) RegistrarRechazo(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dtes[id]
	if !ok || d.Estado != entity.DTEEstadoEnProceso {
		return fmt.Errorf("registrar rechazo dte %s: el documento no estaba en proceso", id)
	}
	d.Estado = entity.DTEEstadoRechazadoPendiente
	d.IntentosEnvio++
	return nil
}

func (f *fakeDTERepo) ReconciliarAceptado(_ context.Context, id, sello string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dtes[id]
	if !ok || !d.Transmisible() {
		return false, nil
	}
	d.Estado = entity.DTEEstadoProcesado
	d.SelloRecibido = sello
	return true, nil
}

func (f *fakeDTERepo) RegistrarAnulado(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dtes[id]
	if !ok || d.Estado != entity.DTEEstadoProcesado {
		return false, nil
	}
	d.Estado = entity.DTEEstadoAnulado
	return true, nil
}

type fakeInvRepo struct {
	mu   sync.Mutex
	invs map[string]*entity.Invalidacion

	// antesCrear, si está definido, corre antes del chequeo de unicidad de
	// Crear; permite sincronizar dos peticiones en la ventana de carrera.
	antesCrear func()
}

func newFakeInvRepo(invs ...*entity.Invalidacion) *fakeInvRepo {
	m := make(map[string]*entity.Invalidacion)
	for _, inv := range invs {
		m[inv.ID] = inv
	}
	return &fakeInvRepo{invs: m}
}

func (f *fakeInvRepo) GetVigente(_ context.Context, dteID string) (*entity.Invalidacion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invs {
		if inv.DteID == dteID &&
			(inv.Estado == entity.InvalidacionEstadoPendiente || inv.Estado == entity.InvalidacionEstadoEnProceso) {
			copia := *inv
			return &copia, nil
		}
	}
	return nil, nil
}

func (f *fakeInvRepo) GetAceptada(_ context.Context, dteID string) (*entity.Invalidacion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invs {
		if inv.DteID == dteID && inv.Estado == entity.InvalidacionEstadoProcesado {
			copia := *inv
			return &copia, nil
		}
	}
	return nil, nil
}

// Crear imita el índice único parcial sobre dte_id: a lo sumo un evento no
// terminal por documento, el insert perdedor no escribe nada.
func (f *fakeInvRepo) Crear(_ context.Context, inv *entity.Invalidacion) (bool, error) {
	if f.antesCrear != nil {
		f.antesCrear()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existente := range f.invs {
		if existente.DteID == inv.DteID &&
			(existente.Estado == entity.InvalidacionEstadoPendiente || existente.Estado == entity.InvalidacionEstadoEnProceso) {
			return false, nil
		}
	}
	copia := *inv
	f.invs[inv.ID] = &copia
	return true, nil
}

func (f *fakeInvRepo) MarcarEnProceso(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invs[id]
	if !ok || inv.Estado != entity.InvalidacionEstadoPendiente {
		return false, nil
	}
	inv.Estado = entity.InvalidacionEstadoEnProceso
	return true, nil
}

func (f *fakeInvRepo) LiberarEnProceso(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invs[id]
	if !ok || inv.Estado != entity.InvalidacionEstadoEnProceso {
		return fmt.Errorf("liberar invalidacion %s: el evento no estaba en proceso", id)
	}
	inv.Estado = entity.InvalidacionEstadoPendiente
	return nil
}

func (f *fakeInvRepo) RegistrarResultado(_ context.Context, inv *entity.Invalidacion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	guardado, ok := f.invs[inv.ID]
	if !ok {
		return fmt.Errorf("registrar resultado invalidacion %s: evento no encontrado", inv.ID)
	}
	*guardado = *inv
	return nil
}

type fakeVentaRepo struct {
	mu     sync.Mutex
	ventas map[string]*entity.Venta

	reversiones []string // IDs revertidos, en orden
}

func newFakeVentaRepo(ventas ...*entity.Venta) *fakeVentaRepo {
	m := make(map[string]*entity.Venta)
	for _, v := range ventas {
		m[v.ID] = v
	}
	return &fakeVentaRepo{ventas: m}
}

func (f *fakeVentaRepo) GetByID(_ context.Context, id string) (*entity.Venta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.ventas[id]
	if !ok {
		return nil, nil
	}
	copia := *v
	return &copia, nil
}

func (f *fakeVentaRepo) RevertirEfectos(_ context.Context, ventaID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reversiones = append(f.reversiones, ventaID)
	return nil
}

// fakeFirmador devuelve un JWS fijo o un fallo inyectado.
type fakeFirmador struct {
	mu       sync.Mutex
	jws      string
	err      error
	llamadas int
}

func (f *fakeFirmador) Firmar(_ context.Context, _ any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.llamadas++
	if f.err != nil {
		return "", f.err
	}
	return f.jws, nil
}

// fakeTransmisor devuelve resultados etiquetados preconfigurados, en orden.
type fakeTransmisor struct {
	mu         sync.Mutex
	resultados []dte.Resultado
	llamadas   int
}

func (f *fakeTransmisor) siguiente() dte.Resultado {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.resultados[f.llamadas%len(f.resultados)]
	f.llamadas++
	return r
}

func (f *fakeTransmisor) Enviar(_ context.Context, _ facturacion.EnvioDTE) dte.Resultado {
	return f.siguiente()
}

func (f *fakeTransmisor) Anular(_ context.Context, _ facturacion.EnvioAnulacion) dte.Resultado {
	return f.siguiente()
}

func (f *fakeTransmisor) Consultar(_ context.Context, _ facturacion.ConsultaDTE) dte.Resultado {
	return f.siguiente()
}

// fakeGeneradorPDF devuelve un comprobante fijo.
type fakeGeneradorPDF struct{}

func (fakeGeneradorPDF) GenerarComprobante(_ context.Context, _ *entity.DTE, _ *entity.Venta) ([]byte, error) {
	return []byte("%PDF-1.4 comprobante"), nil
}

// fakeEnviadorCorreo captura el envío y cierra hecho, para que el test pueda
// esperar la goroutine de notificación.
type fakeEnviadorCorreo struct {
	destinatario  string
	asunto        string
	nombreArchivo string
	hecho         chan struct{}
}

func newFakeEnviadorCorreo() *fakeEnviadorCorreo {
	return &fakeEnviadorCorreo{hecho: make(chan struct{})}
}

func (f *fakeEnviadorCorreo) EnviarComprobante(destinatario, asunto, nombreArchivo string, _, _ []byte) error {
	f.destinatario = destinatario
	f.asunto = asunto
	f.nombreArchivo = nombreArchivo
	close(f.hecho)
	return nil
}

// fakeTxRunner ejecuta el callback sin transacción real; un fallo inyectado
// simula un rollback.
type fakeTxRunner struct {
	dteRepo   repository.DTERepository
	invRepo   repository.InvalidacionRepository
	ventaRepo repository.VentaRepository
	err       error
}

func (f *fakeTxRunner) RunAnulacion(_ context.Context, fn func(
	dteRepo repository.DTERepository,
	invRepo repository.InvalidacionRepository,
	ventaRepo repository.VentaRepository,
) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(f.dteRepo, f.invRepo, f.ventaRepo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Datos de prueba
// ──────────────────────────────────────────────────────────────────────────────

const (
	testVentaID   = "7b8a0f10-0000-0000-0000-0000000000aa"
	testSello     = "2024ABCDEF1234567890"
	testCodGen    = "A6E2F8D0-1111-2222-3333-444455556666"
	testNumCtrl   = "DTE-01-M001P001-000000000000001"
	testNitEmisor = "06142909201012"
)

func testMHConfig() config.MHConfig {
	return config.MHConfig{
		Ambiente:        "00",
		TimeoutSegundos: 5,
		Emisor: config.EmisorConfig{
			NIT:           "0614-290920-101-2",
			NRC:           "123456-7",
			Nombre:        "COMERCIAL EL ROBLE S.A. DE C.V.",
			CodActividad:  "47190",
			DescActividad: "Venta al por menor",
			CodEstable:    "M001",
			CodPuntoVenta: "P001",
			Departamento:  "06",
			Municipio:     "14",
			Complemento:   "Col. Escalón, San Salvador",
		},
	}
}

func testDTE(estado string, intentos int) *entity.DTE {
	return &entity.DTE{
		ID:               testVentaID,
		TipoDte:          entity.TipoDTEFactura,
		CodigoGeneracion: testCodGen,
		NumeroControl:    testNumCtrl,
		Estado:           estado,
		IntentosEnvio:    intentos,
		NitEmisor:        testNitEmisor,
		TotalIva:         decimal.NewFromFloat(1.30),
	}
}

func testVenta() *entity.Venta {
	return &entity.Venta{
		ID:               testVentaID,
		Fecha:            time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		ClienteNombre:    "María Pérez",
		ClienteDocumento: "04567890-3",
		ClienteCorreo:    "maria@example.com",
		TotalGravado:     decimal.NewFromFloat(10.00),
		TotalIva:         decimal.NewFromFloat(1.30),
		TotalPagar:       decimal.NewFromFloat(11.30),
		CondicionPago:    1,
		Items: []entity.VentaItem{
			{
				Descripcion:    "Café molido 500g",
				Cantidad:       decimal.NewFromInt(2),
				PrecioUnitario: decimal.NewFromFloat(5.00),
				IvaItem:        decimal.NewFromFloat(1.30),
				Subtotal:       decimal.NewFromFloat(10.00),
			},
		},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "development", Level: "error"})
}

// firmaSentinel fallo de firma reutilizable en varios tests.
var firmaSentinel = &domain.ErrorFirma{Mensaje: "certificado expirado"}
