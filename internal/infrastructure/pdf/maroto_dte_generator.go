// Package pdf implementa la representación gráfica del DTE salvadoreño para
// entregar al receptor junto con el JSON transmitido.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre emisor + NIT  │  N° Control + Fecha         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: Nombre + DUI/NIT + correo                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA | Subtotal        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Gravado / IVA / TOTAL A PAGAR                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER MH: Código de generación + Sello + QR + Leyenda     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	appconfig "github.com/jhoicas/Facturacion-api/pkg/config"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ facturacion.GeneradorPDF = (*MarotoDTEGenerator)(nil)

// MarotoDTEGenerator implementa facturacion.GeneradorPDF usando Maroto v2.
type MarotoDTEGenerator struct {
	emisor   appconfig.EmisorConfig
	ambiente string
}

// NewMarotoDTEGenerator construye el generador con los datos del emisor.
func NewMarotoDTEGenerator(emisor appconfig.EmisorConfig, ambiente string) *MarotoDTEGenerator {
	return &MarotoDTEGenerator{emisor: emisor, ambiente: ambiente}
}

// GenerarComprobante genera el PDF de la representación gráfica y devuelve sus bytes.
func (g *MarotoDTEGenerator) GenerarComprobante(_ context.Context, d *entity.DTE, venta *entity.Venta) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(tituloDocumento(d.TipoDte), true).
		WithAuthor(g.emisor.Nombre, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(d, venta))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receptorRow(venta))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(venta.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(venta))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range g.mhFooterRows(d) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre del emisor + NIT (izq) y número de control + fecha (der).
func (g *MarotoDTEGenerator) headerRow(d *entity.DTE, venta *entity.Venta) core.Row {
	fecha := venta.Fecha.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(g.emisor.Nombre, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIT: "+g.emisor.NIT+"   NRC: "+g.emisor.NRC, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(tituloDocumento(d.TipoDte), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(d.NumeroControl, props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// receptorRow: datos del receptor de la venta.
func receptorRow(venta *entity.Venta) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(venta.ClienteNombre, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Documento: %s   |   Correo: %s",
				nonEmpty(venta.ClienteDocumento, "—"),
				nonEmpty(venta.ClienteCorreo, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("IVA", 2, align.Right),
		h("Subtotal", 2, align.Right),
	)
}

// tableDetailRows: una fila por línea de la venta.
func tableDetailRows(items []entity.VentaItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Cantidad.StringFixed(0),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				it.Descripcion,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+it.PrecioUnitario.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				"$"+it.IvaItem.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				"$"+it.Subtotal.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(venta *entity.Venta) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Total gravado:"),
			label("IVA:"),
			grandLabel("TOTAL A PAGAR:"),
		),
		col.New(3).Add(
			value("$"+venta.TotalGravado.StringFixed(2)),
			value("$"+venta.TotalIva.StringFixed(2)),
			grandValue("$"+venta.TotalPagar.StringFixed(2)),
		),
		col.New(3),
	)
}

// mhFooterRows: código de generación + sello de recepción + QR + leyenda.
func (g *MarotoDTEGenerator) mhFooterRows(d *entity.DTE) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN ELECTRÓNICA MINISTERIO DE HACIENDA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New("Código de generación: "+d.CodigoGeneracion, props.Text{
				Size: 7, Top: 1, Color: colorGray,
			}),
		)),
	}

	if d.SelloRecibido != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Sello de recepción:", props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)))
		for _, chunk := range splitEvery(d.SelloRecibido, 80) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
	}

	rows = append(rows, row.New(3))

	// QR con la URL de consulta pública del MH.
	qr := fmt.Sprintf("https://admin.factura.gob.sv/consultaPublica?ambiente=%s&codGen=%s&fechaEmi=%s",
		g.ambiente, d.CodigoGeneracion, d.CreatedAt.Format("2006-01-02"))
	rows = append(rows, row.New(50).Add(
		col.New(4).Add(code.NewQr(qr, props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(8).Add(
			text.New("Escanea el código QR para consultar\neste documento en el portal del MH.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("DOCUMENTO TRIBUTARIO\nELECTRÓNICO", props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 22,
				Left: 3, Color: colorPrimary,
			}),
		),
	))

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Documento tributario electrónico emitido conforme a la Ley de Facturación "+
				"Electrónica de El Salvador. Conserve este documento como soporte fiscal.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func tituloDocumento(tipoDte string) string {
	if tipoDte == entity.TipoDTENotaCredito {
		return "NOTA DE CRÉDITO ELECTRÓNICA"
	}
	return "FACTURA ELECTRÓNICA"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
