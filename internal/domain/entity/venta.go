package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venta es la fila de venta finalizada en POS, consumida de solo lectura por
// la facturación electrónica. El cálculo de impuestos y el alta de la venta
// pertenecen al módulo de caja, no a este repo.
type Venta struct {
	ID               string
	Fecha            time.Time
	ClienteNombre    string
	ClienteDocumento string // DUI o NIT del receptor
	ClienteCorreo    string
	TotalGravado     decimal.Decimal
	TotalIva         decimal.Decimal
	TotalPagar       decimal.Decimal
	CondicionPago    int // 1 contado, 2 crédito, 3 otro (CAT-016)
	Items            []VentaItem
}

// VentaItem línea de la venta.
type VentaItem struct {
	Descripcion    string
	Cantidad       decimal.Decimal
	PrecioUnitario decimal.Decimal
	IvaItem        decimal.Decimal
	Subtotal       decimal.Decimal
}
