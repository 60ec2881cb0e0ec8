package facturacion

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/hacienda"
)

// ── Cuerpos canónicos del esquema MH ─────────────────────────────────────────

// CuerpoDTE es el documento canónico (factura o nota de crédito) que se envía
// al firmador tal cual, con la forma del esquema JSON del MH.
type CuerpoDTE struct {
	Identificacion  Identificacion   `json:"identificacion"`
	Emisor          Emisor           `json:"emisor"`
	Receptor        Receptor         `json:"receptor"`
	CuerpoDocumento []LineaDocumento `json:"cuerpoDocumento"`
	Resumen         Resumen          `json:"resumen"`
}

// Identificacion cabecera de versión, ambiente y correlativo.
type Identificacion struct {
	Version          int    `json:"version"`
	Ambiente         string `json:"ambiente"`
	TipoDte          string `json:"tipoDte"`
	NumeroControl    string `json:"numeroControl"`
	CodigoGeneracion string `json:"codigoGeneracion"`
	TipoModelo       int    `json:"tipoModelo"`    // 1: modelo de facturación previo
	TipoOperacion    int    `json:"tipoOperacion"` // 1: transmisión normal
	FecEmi           string `json:"fecEmi"`
	HorEmi           string `json:"horEmi"`
	TipoMoneda       string `json:"tipoMoneda"`
}

// Emisor identificación del emisor (desde configuración).
type Emisor struct {
	Nit             string    `json:"nit"`
	Nrc             string    `json:"nrc"`
	Nombre          string    `json:"nombre"`
	CodActividad    string    `json:"codActividad"`
	DescActividad   string    `json:"descActividad"`
	NombreComercial string    `json:"nombreComercial"`
	Direccion       Direccion `json:"direccion"`
	Telefono        string    `json:"telefono"`
	Correo          string    `json:"correo"`
	CodEstable      string    `json:"codEstable"`
	CodPuntoVenta   string    `json:"codPuntoVenta"`
}

// Direccion dirección según catálogos de departamento/municipio.
type Direccion struct {
	Departamento string `json:"departamento"`
	Municipio    string `json:"municipio"`
	Complemento  string `json:"complemento"`
}

// Receptor identificación del receptor (desde la venta).
type Receptor struct {
	TipoDocumento string `json:"tipoDocumento"` // "36" NIT, "13" DUI
	NumDocumento  string `json:"numDocumento"`
	Nombre        string `json:"nombre"`
	Correo        string `json:"correo,omitempty"`
}

// LineaDocumento línea del cuerpo del documento.
type LineaDocumento struct {
	NumItem      int     `json:"numItem"`
	TipoItem     int     `json:"tipoItem"` // 1: bien, 2: servicio
	Descripcion  string  `json:"descripcion"`
	Cantidad     float64 `json:"cantidad"`
	PrecioUni    float64 `json:"precioUni"`
	IvaItem      float64 `json:"ivaItem"`
	VentaGravada float64 `json:"ventaGravada"`
}

// Resumen totales del documento.
type Resumen struct {
	TotalGravada        float64 `json:"totalGravada"`
	TotalIva            float64 `json:"totalIva"`
	MontoTotalOperacion float64 `json:"montoTotalOperacion"`
	TotalPagar          float64 `json:"totalPagar"`
	CondicionOperacion  int     `json:"condicionOperacion"`
}

// CuerpoInvalidacion es el evento de invalidación canónico. Referencia el DTE
// original por código de generación, sello y número de control, que nunca se
// regeneran.
type CuerpoInvalidacion struct {
	Identificacion IdentificacionInvalidacion `json:"identificacion"`
	Emisor         Emisor                     `json:"emisor"`
	Documento      DocumentoInvalidado        `json:"documento"`
	Motivo         MotivoInvalidacion         `json:"motivo"`
}

// IdentificacionInvalidacion cabecera del evento (identidad propia).
type IdentificacionInvalidacion struct {
	Version          int    `json:"version"`
	Ambiente         string `json:"ambiente"`
	CodigoGeneracion string `json:"codigoGeneracion"` // del evento, no del DTE original
	FecAnula         string `json:"fecAnula"`
	HorAnula         string `json:"horAnula"`
}

// DocumentoInvalidado referencias inmutables al DTE que se revoca.
type DocumentoInvalidado struct {
	TipoDte          string  `json:"tipoDte"`
	CodigoGeneracion string  `json:"codigoGeneracion"`
	SelloRecibido    string  `json:"selloRecibido"`
	NumeroControl    string  `json:"numeroControl"`
	FecEmi           string  `json:"fecEmi"`
	MontoIva         float64 `json:"montoIva"`
}

// MotivoInvalidacion motivo y responsable del evento.
type MotivoInvalidacion struct {
	TipoAnulacion     int    `json:"tipoAnulacion"`
	MotivoAnulacion   string `json:"motivoAnulacion"`
	NombreResponsable string `json:"nombreResponsable"`
	TipDocResponsable string `json:"tipDocResponsable"`
	NumDocResponsable string `json:"numDocResponsable"`
}

// nowFn se reemplaza en tests para componer eventos deterministas.
var nowFn = time.Now

// ── Composer ─────────────────────────────────────────────────────────────────

// Composer arma los cuerpos canónicos a partir de la venta y la configuración
// del emisor. Función pura de su entrada: sin efectos, determinista, segura de
// invocar repetidas veces. Todos los montos se redondean a dos decimales aquí
// y en ningún otro punto aguas abajo.
type Composer struct {
	emisor   config.EmisorConfig
	ambiente string
}

// NewComposer construye el composer con la identidad del emisor.
func NewComposer(cfg config.MHConfig) *Composer {
	return &Composer{emisor: cfg.Emisor, ambiente: cfg.Ambiente}
}

// ComponerDTE construye el cuerpo canónico del DTE de la venta.
func (c *Composer) ComponerDTE(d *entity.DTE, venta *entity.Venta) (*CuerpoDTE, error) {
	if err := c.validarEmisor(); err != nil {
		return nil, err
	}
	if err := validarDTE(d); err != nil {
		return nil, err
	}
	if venta.ClienteNombre == "" {
		return nil, fmt.Errorf("%w: falta el nombre del receptor", domain.ErrDatosIncompletos)
	}
	if venta.ClienteDocumento == "" {
		return nil, fmt.Errorf("%w: falta el documento del receptor", domain.ErrDatosIncompletos)
	}
	if err := validarDocumento(venta.ClienteDocumento); err != nil {
		return nil, fmt.Errorf("%w: documento del receptor: %v", domain.ErrDatosIncompletos, err)
	}
	if len(venta.Items) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene líneas", domain.ErrDatosIncompletos)
	}

	lineas := make([]LineaDocumento, len(venta.Items))
	for i, it := range venta.Items {
		lineas[i] = LineaDocumento{
			NumItem:      i + 1,
			TipoItem:     1,
			Descripcion:  it.Descripcion,
			Cantidad:     monto(it.Cantidad),
			PrecioUni:    monto(it.PrecioUnitario),
			IvaItem:      monto(it.IvaItem),
			VentaGravada: monto(it.Subtotal),
		}
	}

	return &CuerpoDTE{
		Identificacion: Identificacion{
			Version:          hacienda.VersionPorTipo(d.TipoDte),
			Ambiente:         c.ambiente,
			TipoDte:          d.TipoDte,
			NumeroControl:    d.NumeroControl,
			CodigoGeneracion: d.CodigoGeneracion,
			TipoModelo:       1,
			TipoOperacion:    1,
			FecEmi:           venta.Fecha.Format("2006-01-02"),
			HorEmi:           venta.Fecha.Format("15:04:05"),
			TipoMoneda:       "USD",
		},
		Emisor: c.cuerpoEmisor(),
		Receptor: Receptor{
			TipoDocumento: tipoDocumentoReceptor(venta.ClienteDocumento),
			NumDocumento:  hacienda.FormatearDocumentoReceptor(venta.ClienteDocumento),
			Nombre:        venta.ClienteNombre,
			Correo:        venta.ClienteCorreo,
		},
		CuerpoDocumento: lineas,
		Resumen: Resumen{
			TotalGravada:        monto(venta.TotalGravado),
			TotalIva:            monto(venta.TotalIva),
			MontoTotalOperacion: monto(venta.TotalPagar),
			TotalPagar:          monto(venta.TotalPagar),
			CondicionOperacion:  condicionOperacion(venta.CondicionPago),
		},
	}, nil
}

// ComponerInvalidacion construye el evento de invalidación. Las referencias al
// DTE original (código, sello, número de control) se copian tal cual.
func (c *Composer) ComponerInvalidacion(d *entity.DTE, inv *entity.Invalidacion, venta *entity.Venta) (*CuerpoInvalidacion, error) {
	if err := c.validarEmisor(); err != nil {
		return nil, err
	}
	if err := validarDTE(d); err != nil {
		return nil, err
	}
	if d.SelloRecibido == "" {
		return nil, fmt.Errorf("%w: el DTE no tiene sello de recepción", domain.ErrDatosIncompletos)
	}
	if inv.CodigoGeneracion == "" {
		return nil, fmt.Errorf("%w: el evento no tiene código de generación", domain.ErrDatosIncompletos)
	}
	if inv.MotivoAnulacion == "" || inv.ResponsableNombre == "" {
		return nil, fmt.Errorf("%w: faltan motivo o responsable de la anulación", domain.ErrDatosIncompletos)
	}
	if err := validarDocumento(inv.ResponsableDocumento); err != nil {
		return nil, fmt.Errorf("%w: documento del responsable: %v", domain.ErrDatosIncompletos, err)
	}

	ahora := nowFn()
	return &CuerpoInvalidacion{
		Identificacion: IdentificacionInvalidacion{
			Version:          hacienda.VersionInvalidacion,
			Ambiente:         c.ambiente,
			CodigoGeneracion: inv.CodigoGeneracion,
			FecAnula:         ahora.Format("2006-01-02"),
			HorAnula:         ahora.Format("15:04:05"),
		},
		Emisor: c.cuerpoEmisor(),
		Documento: DocumentoInvalidado{
			TipoDte:          d.TipoDte,
			CodigoGeneracion: d.CodigoGeneracion,
			SelloRecibido:    d.SelloRecibido,
			NumeroControl:    d.NumeroControl,
			FecEmi:           venta.Fecha.Format("2006-01-02"),
			MontoIva:         monto(d.TotalIva),
		},
		Motivo: MotivoInvalidacion{
			TipoAnulacion:     inv.TipoAnulacion,
			MotivoAnulacion:   inv.MotivoAnulacion,
			NombreResponsable: inv.ResponsableNombre,
			TipDocResponsable: tipoDocumentoReceptor(inv.ResponsableDocumento),
			NumDocResponsable: hacienda.FormatearDocumentoReceptor(inv.ResponsableDocumento),
		},
	}, nil
}

// ── helpers privados ─────────────────────────────────────────────────────────

func (c *Composer) validarEmisor() error {
	switch {
	case c.emisor.NIT == "":
		return fmt.Errorf("%w: falta NIT del emisor", domain.ErrDatosIncompletos)
	case c.emisor.NRC == "":
		return fmt.Errorf("%w: falta NRC del emisor", domain.ErrDatosIncompletos)
	case c.emisor.Nombre == "":
		return fmt.Errorf("%w: falta nombre del emisor", domain.ErrDatosIncompletos)
	case c.emisor.CodEstable == "" || c.emisor.CodPuntoVenta == "":
		return fmt.Errorf("%w: faltan códigos de establecimiento o punto de venta", domain.ErrDatosIncompletos)
	}
	if err := hacienda.ValidarNIT(c.emisor.NIT); err != nil {
		return fmt.Errorf("%w: NIT del emisor: %v", domain.ErrDatosIncompletos, err)
	}
	return nil
}

// validarDocumento exige un verificador válido según el tipo que se va a
// declarar: NIT de 14 dígitos o DUI de 9 con dígito verificador correcto.
func validarDocumento(doc string) error {
	if tipoDocumentoReceptor(doc) == "36" {
		return hacienda.ValidarNIT(doc)
	}
	return hacienda.ValidarDUI(doc)
}

func validarDTE(d *entity.DTE) error {
	if d.CodigoGeneracion == "" {
		return fmt.Errorf("%w: el DTE no tiene código de generación", domain.ErrDatosIncompletos)
	}
	if d.NumeroControl == "" {
		return fmt.Errorf("%w: el DTE no tiene número de control", domain.ErrDatosIncompletos)
	}
	return nil
}

func (c *Composer) cuerpoEmisor() Emisor {
	return Emisor{
		Nit:             hacienda.FormatearDocumentoReceptor(c.emisor.NIT),
		Nrc:             c.emisor.NRC,
		Nombre:          c.emisor.Nombre,
		CodActividad:    c.emisor.CodActividad,
		DescActividad:   c.emisor.DescActividad,
		NombreComercial: c.emisor.NombreComercial,
		Direccion: Direccion{
			Departamento: c.emisor.Departamento,
			Municipio:    c.emisor.Municipio,
			Complemento:  c.emisor.Complemento,
		},
		Telefono:      c.emisor.Telefono,
		Correo:        c.emisor.Correo,
		CodEstable:    c.emisor.CodEstable,
		CodPuntoVenta: c.emisor.CodPuntoVenta,
	}
}

// monto redondea al centavo antes de componer; aguas abajo no hay más redondeo.
func monto(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// tipoDocumentoReceptor deduce el tipo de documento por su longitud:
// 14 dígitos es NIT ("36"), lo demás se trata como DUI ("13").
func tipoDocumentoReceptor(doc string) string {
	if len(hacienda.FormatearDocumentoReceptor(doc)) == 14 {
		return "36"
	}
	return "13"
}

func condicionOperacion(condicionPago int) int {
	if condicionPago >= 1 && condicionPago <= 3 {
		return condicionPago
	}
	return 1
}
