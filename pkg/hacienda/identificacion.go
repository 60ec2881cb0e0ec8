// Package hacienda agrupa utilidades del dominio fiscal salvadoreño:
// validación de identificaciones (NIT/DUI), correlativos de DTE y
// normalización de textos para los artefactos del documento.
package hacienda

import "fmt"

// pesos para el dígito verificador del DUI: se aplican a los 8 primeros
// dígitos, de izquierda a derecha.
var duiWeights = [8]int{9, 8, 7, 6, 5, 4, 3, 2}

// ValidarDUI valida un DUI con o sin guión ("04567890-1" o "045678901"):
// 9 dígitos, el último es el verificador módulo 10.
func ValidarDUI(dui string) error {
	digits := extraerDigitos(dui)
	if len(digits) != 9 {
		return fmt.Errorf("hacienda: DUI debe tener 9 dígitos, se encontraron %d", len(digits))
	}
	var sum int
	for i := 0; i < 8; i++ {
		sum += int(digits[i]-'0') * duiWeights[i]
	}
	expected := (10 - sum%10) % 10
	if int(digits[8]-'0') != expected {
		return fmt.Errorf("hacienda: dígito verificador del DUI inválido: esperado %d, recibido %c", expected, digits[8])
	}
	return nil
}

// ValidarNIT valida el formato del NIT (14 dígitos, con o sin guiones).
// También acepta el NIT homologado al DUI (9 dígitos con verificador válido),
// vigente desde el Decreto 203/2021.
func ValidarNIT(nit string) error {
	digits := extraerDigitos(nit)
	switch len(digits) {
	case 14:
		return nil
	case 9:
		return ValidarDUI(nit)
	default:
		return fmt.Errorf("hacienda: NIT debe tener 14 dígitos (o 9 si está homologado al DUI), se encontraron %d", len(digits))
	}
}

// FormatearDocumentoReceptor devuelve el documento solo con dígitos, como lo
// espera el esquema del MH.
func FormatearDocumentoReceptor(doc string) string {
	return string(extraerDigitos(doc))
}

func extraerDigitos(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return out
}
