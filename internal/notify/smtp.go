package notify

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tjuecard/internal/common"
	"github.com/wneessen/go-mail"
)

type smtpSender struct{}

// NewSMTPSender returns a Sender that dials the provider with implicit TLS
// and PLAIN auth, using the mailbox's authorisation code as the password.
func NewSMTPSender() Sender {
	return smtpSender{}
}

func (smtpSender) Send(ctx context.Context, p Provider, account string, authCode []byte, to string, subject, body string) error {
	m := mail.NewMsg()
	if err := m.FromFormat(DisplayName, account); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	c, err := mail.NewClient(p.Host,
		mail.WithPort(p.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(account),
		mail.WithPassword(string(authCode)),
		mail.WithTimeout(common.RequestTimeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send via %s:%d: %w", p.Host, p.Port, err)
	}
	return nil
}
