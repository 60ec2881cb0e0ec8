package hacienda_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/pkg/hacienda"
)

// DUI válido: suma ponderada 9..2 sobre los 8 primeros dígitos, verificador
// (10 - sum%10) % 10. Para 04567890 la suma es 197 → verificador 3.
func TestValidarDUI_Valido(t *testing.T) {
	require.NoError(t, hacienda.ValidarDUI("04567890-3"))
	require.NoError(t, hacienda.ValidarDUI("045678903"), "también sin guión")
	require.NoError(t, hacienda.ValidarDUI("00000000-0"))
}

func TestValidarDUI_Invalido(t *testing.T) {
	assert.Error(t, hacienda.ValidarDUI("04567890-1"), "verificador incorrecto")
	assert.Error(t, hacienda.ValidarDUI("1234"), "longitud incorrecta")
	assert.Error(t, hacienda.ValidarDUI(""), "vacío")
}

func TestValidarNIT(t *testing.T) {
	// NIT clásico de 14 dígitos, con y sin guiones.
	require.NoError(t, hacienda.ValidarNIT("0614-290920-101-2"))
	require.NoError(t, hacienda.ValidarNIT("06142909201012"))

	// NIT homologado al DUI: 9 dígitos con verificador válido.
	require.NoError(t, hacienda.ValidarNIT("04567890-3"))
	assert.Error(t, hacienda.ValidarNIT("04567890-1"), "DUI homologado con verificador inválido")

	assert.Error(t, hacienda.ValidarNIT("12345"), "longitud que no es ni NIT ni DUI")
}

func TestFormatearDocumentoReceptor(t *testing.T) {
	assert.Equal(t, "06142909201012", hacienda.FormatearDocumentoReceptor("0614-290920-101-2"))
	assert.Equal(t, "045678903", hacienda.FormatearDocumentoReceptor("04567890-3"))
	assert.Equal(t, "", hacienda.FormatearDocumentoReceptor("sin dígitos"))
}
