// Package correo envía al receptor el comprobante del DTE aceptado: la
// representación gráfica en PDF y el JSON transmitido. Es una notificación
// fire-and-forget; un fallo aquí nunca altera el estado del documento.
package correo

import (
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/pkg/config"
)

var _ facturacion.EnviadorCorreo = (*GomailSender)(nil)

// GomailSender implementa facturacion.EnviadorCorreo vía SMTP.
type GomailSender struct {
	dialer *gomail.Dialer
	de     string
}

// NewGomailSender construye el enviador con la configuración SMTP.
func NewGomailSender(cfg config.CorreoConfig) *GomailSender {
	return &GomailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Usuario, cfg.Password),
		de:     cfg.Remitente,
	}
}

// EnviarComprobante envía el PDF y el JSON del DTE como adjuntos.
func (s *GomailSender) EnviarComprobante(destinatario, asunto, nombreArchivo string, pdf, dteJSON []byte) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.de)
	m.SetHeader("To", destinatario)
	m.SetHeader("Subject", asunto)
	m.SetBody("text/plain",
		"Adjuntamos su documento tributario electrónico en formato PDF junto con el JSON transmitido al Ministerio de Hacienda.")

	m.Attach(nombreArchivo+".pdf", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))
	m.Attach(nombreArchivo+".json", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(dteJSON)
		return err
	}))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("enviar comprobante a %s: %w", destinatario, err)
	}
	return nil
}
