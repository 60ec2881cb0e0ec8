package hacienda

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Versiones de esquema por tipo de DTE y para el evento de invalidación.
const (
	VersionFactura      = 1
	VersionNotaCredito  = 3
	VersionInvalidacion = 2
)

// VersionPorTipo devuelve la versión de esquema MH que corresponde al tipo de DTE.
func VersionPorTipo(tipoDte string) int {
	if tipoDte == "05" {
		return VersionNotaCredito
	}
	return VersionFactura
}

// NuevoCodigoGeneracion acuña un código de generación: UUID v4 en mayúsculas,
// como lo exige el esquema del MH. Se acuña una sola vez por documento lógico
// y se reutiliza en cada reintento de esa misma transmisión.
func NuevoCodigoGeneracion() string {
	return strings.ToUpper(uuid.New().String())
}

// NuevoIdEnvio genera el identificador numérico del sobre de envío. No
// interviene en la deduplicación (eso lo hace el código de generación), solo
// distingue sobres en la bitácora del MH.
func NuevoIdEnvio() int {
	return rand.Intn(9_000_000) + 1_000_000
}

// NumeroControl arma el correlativo legible del DTE:
// DTE-<tipo>-<estable><puntoVenta>-<secuencial de 15 dígitos>.
func NumeroControl(tipoDte, codEstable, codPuntoVenta string, secuencial int64) string {
	return fmt.Sprintf("DTE-%s-%s%s-%015d", tipoDte, codEstable, codPuntoVenta, secuencial)
}

// SinDiacriticos elimina tildes y diéresis (José → Jose) para nombres de
// archivo y asuntos de correo que atraviesan sistemas sin UTF-8 confiable.
func SinDiacriticos(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NombreArchivo construye el nombre base de los artefactos del DTE
// (JSON y PDF) a partir del NIT del emisor y el código de generación,
// normalizado sin diacríticos.
func NombreArchivo(nitEmisor, codigoGeneracion string) string {
	return SinDiacriticos(fmt.Sprintf("DTE-%s-%s", FormatearDocumentoReceptor(nitEmisor), codigoGeneracion))
}
