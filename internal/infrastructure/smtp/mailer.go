package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/go-magic-auth/internal/config"
)

const codeSubject = "Your sign-in code"

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
	// SendCode emails a one-time code together with its magic link.
	SendCode(ctx context.Context, to, code, link string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
	send     sendFunc
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		send:     smtp.SendMail,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return m.send(addr, auth, m.from, []string{to}, composeMessage(m.from, to, subject, body))
}

// SendCode does not honour ctx cancellation once the SMTP dialogue has started.
func (m *mailer) SendCode(ctx context.Context, to, code, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.SendEmail(to, codeSubject, codeBody(code, link))
}

func composeMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func codeBody(code, link string) string {
	return fmt.Sprintf(
		"Your sign-in code is: %s\r\n\r\nOr sign in directly with this link:\r\n%s\r\n\r\nThe code expires soon. If you didn't request it, you can ignore this email.\r\n",
		code, link,
	)
}
