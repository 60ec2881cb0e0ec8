package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrUsuarioNoEncontrado = errors.New("usuario no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrEnvioEnCurso        = errors.New("ya hay un envío en curso para este documento")
	ErrDatosIncompletos    = errors.New("datos de origen incompletos")
)

// ErrorFirma indica que el firmador externo no devolvió un documento firmado.
// No muta estado persistido: un documento que nunca llegó a Hacienda no
// consume intentos de envío.
type ErrorFirma struct {
	Mensaje string
}

func (e *ErrorFirma) Error() string {
	return "firmador: " + e.Mensaje
}

// ErrorComunicacion indica que Hacienda fue inalcanzable (red, timeout o
// respuesta inutilizable). Reintentable; incrementa el contador de intentos.
type ErrorComunicacion struct {
	Causa error
}

func (e *ErrorComunicacion) Error() string {
	return fmt.Sprintf("hacienda inalcanzable: %v", e.Causa)
}

func (e *ErrorComunicacion) Unwrap() error { return e.Causa }

// ErrorRechazo es el rechazo de negocio de Hacienda. Conserva el código y las
// observaciones literales para diagnóstico del operador.
type ErrorRechazo struct {
	Codigo        string
	Descripcion   string
	Observaciones string
}

func (e *ErrorRechazo) Error() string {
	if e.Observaciones != "" {
		return fmt.Sprintf("rechazado por Hacienda [%s] %s: %s", e.Codigo, e.Descripcion, e.Observaciones)
	}
	return fmt.Sprintf("rechazado por Hacienda [%s] %s", e.Codigo, e.Descripcion)
}

// ErrorPersistenciaLocal es el peligro de doble escritura: Hacienda aceptó el
// documento pero la escritura local falló. Hacienda ya lo considera presentado;
// exige conciliación manual y nunca se enmascara como éxito ni como fallo
// genérico.
type ErrorPersistenciaLocal struct {
	Sello string
	Causa error
}

func (e *ErrorPersistenciaLocal) Error() string {
	return fmt.Sprintf("aceptado por Hacienda (sello %s) pero no registrado localmente: %v", e.Sello, e.Causa)
}

func (e *ErrorPersistenciaLocal) Unwrap() error { return e.Causa }

// ErrorIntegridad indica que la conciliación encontró un sello distinto al ya
// persistido. Fatal: detiene el procesamiento automático del documento.
type ErrorIntegridad struct {
	SelloLocal    string
	SelloHacienda string
}

func (e *ErrorIntegridad) Error() string {
	return fmt.Sprintf("sello local %q no coincide con el reportado por Hacienda %q", e.SelloLocal, e.SelloHacienda)
}
