package notifier

import (
	"fmt"
	"net/smtp"

	apperr "cabf05/lotworker/pkg/errors"
)

// SMTPNotifier implements Notifier as a completion email
type SMTPNotifier struct {
	host string
	port int
	user string
	pass string
	from string
	to   string
}

var _ Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a new SMTP notifier
func NewSMTPNotifier(host string, port int, user, pass, from, to string) *SMTPNotifier {
	if from == "" {
		from = user
	}
	return &SMTPNotifier{
		host: host,
		port: port,
		user: user,
		pass: pass,
		from: from,
		to:   to,
	}
}

// Notify sends the completion email with the record total
func (n *SMTPNotifier) Notify(totalRecords int) error {
	body := fmt.Sprintf(
		"Coleta de lotes do site VivaReal foi concluída com sucesso. Total de dados coletados: %d",
		totalRecords)

	msg := []byte("To: " + n.to + "\r\n" +
		"From: " + n.from + "\r\n" +
		"Subject: Coleta VivaReal Concluída\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n")

	var auth smtp.Auth
	if n.user != "" {
		auth = smtp.PlainAuth("", n.user, n.pass, n.host)
	}

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	if err := smtp.SendMail(addr, auth, n.from, []string{n.to}, msg); err != nil {
		return apperr.NewNotify("send completion email", err)
	}
	return nil
}

// Close is a no-op: each email opens its own connection
func (n *SMTPNotifier) Close() error {
	return nil
}
