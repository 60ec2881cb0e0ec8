package dte

import "strings"

// UnirObservaciones concatena el arreglo de observaciones de Hacienda en un
// único texto legible para almacenar junto al resultado. Es total: nil, vacío
// o entradas en blanco producen cadena vacía sin pérdida de datos.
func UnirObservaciones(obs []string) string {
	if len(obs) == 0 {
		return ""
	}
	limpias := make([]string, 0, len(obs))
	for _, o := range obs {
		o = strings.TrimSpace(o)
		if o != "" {
			limpias = append(limpias, o)
		}
	}
	return strings.Join(limpias, "; ")
}
