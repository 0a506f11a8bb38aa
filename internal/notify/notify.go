// Package notify mails query results to the configured mailbox.
//
// Notify never fails the caller: every outcome, including errors, is
// reported through Outcome so the run's exit status stays a function of the
// query alone.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/common"
	"github.com/dmitrijs2005/tjuecard/internal/cryptox"
	"github.com/dmitrijs2005/tjuecard/internal/logging"
)

var ErrUnsupportedMailProvider = errors.New("unsupported mail provider")

// DisplayName is the sender name shown in the recipient's inbox.
const DisplayName = "TjuEcard"

// Provider is an SMTP endpoint with implicit TLS.
type Provider struct {
	Host string
	Port int
}

var providers = map[string]Provider{
	"qq.com":  {Host: "smtp.qq.com", Port: 465},
	"163.com": {Host: "smtp.163.com", Port: 465},
}

// ProviderFor maps a mailbox to its provider's SMTP server.
func ProviderFor(email string) (Provider, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return Provider{}, fmt.Errorf("%w: %q is not an email address", ErrUnsupportedMailProvider, email)
	}
	domain := strings.ToLower(email[at+1:])
	p, ok := providers[domain]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %s (qq.com and 163.com are supported)", ErrUnsupportedMailProvider, domain)
	}
	return p, nil
}

// Message is one notification. Remaining is the balance that gates the
// send; nil marks a failure notice, which is always sent.
type Message struct {
	Subject   string
	Body      string
	Remaining *float64
}

// Outcome reports what Notify did.
type Outcome struct {
	Sent    bool
	Skipped bool
	Reason  string
	Err     error
}

// Sender delivers one plain-text mail from the account to itself or another
// address.
type Sender interface {
	Send(ctx context.Context, p Provider, account string, authCode []byte, to string, subject, body string) error
}

// Decrypter opens an EncryptedSecret. *cryptox.Store satisfies it.
type Decrypter interface {
	Decrypt(secret *cryptox.EncryptedSecret) ([]byte, error)
}

type Notifier struct {
	cfg    *models.EmailNotifier
	dec    Decrypter
	sender Sender
	log    logging.Logger
}

// New returns a Notifier for cfg. cfg may be nil, in which case every
// Notify is skipped. dec is only needed when cfg carries auth_code_enc.
func New(cfg *models.EmailNotifier, dec Decrypter, log logging.Logger) *Notifier {
	return &Notifier{cfg: cfg, dec: dec, sender: NewSMTPSender(), log: log}
}

// WithSender replaces the SMTP transport.
func (n *Notifier) WithSender(s Sender) *Notifier {
	n.sender = s
	return n
}

func (n *Notifier) Notify(ctx context.Context, msg Message) Outcome {
	if !n.cfg.Configured() {
		n.log.Info(ctx, "email notification not configured, skipping")
		return Outcome{Skipped: true, Reason: "email notification not configured"}
	}

	if msg.Remaining != nil {
		threshold := n.cfg.NotificationThreshold()
		if threshold >= 0 && *msg.Remaining > threshold {
			reason := fmt.Sprintf("remaining %g kWh is above the notification threshold %g kWh", *msg.Remaining, threshold)
			n.log.Info(ctx, "notification skipped", "reason", reason)
			return Outcome{Skipped: true, Reason: reason}
		}
	}

	return n.send(ctx, msg.Subject, msg.Body)
}

// Test subject and body used by SendTest.
const (
	TestSubject = "TjuEcard - mail configuration test"
	TestBody    = "If you can read this, your mail configuration works. You can continue with the setup."
)

// SendTest sends the setup verification mail regardless of the threshold.
func (n *Notifier) SendTest(ctx context.Context) Outcome {
	if !n.cfg.Configured() {
		return Outcome{Skipped: true, Reason: "email notification not configured"}
	}
	return n.send(ctx, TestSubject, TestBody)
}

func (n *Notifier) send(ctx context.Context, subject, body string) Outcome {
	fail := func(err error) Outcome {
		err = fmt.Errorf("%w: %w", common.ErrNotificationFailure, err)
		n.log.Error(ctx, "notification failed", "to", n.cfg.Email, "subject", subject, "error", err)
		return Outcome{Err: err, Reason: err.Error()}
	}

	provider, err := ProviderFor(n.cfg.Email)
	if err != nil {
		return fail(err)
	}

	code, err := n.authCode()
	if err != nil {
		return fail(err)
	}
	defer common.WipeByteArray(code)

	if err := n.sender.Send(ctx, provider, n.cfg.Email, code, n.cfg.Email, subject, body); err != nil {
		return fail(err)
	}

	n.log.Info(ctx, "notification sent", "to", n.cfg.Email, "subject", subject)
	return Outcome{Sent: true}
}

func (n *Notifier) authCode() ([]byte, error) {
	if n.cfg.AuthCodeEnc != nil {
		if n.dec == nil {
			return nil, fmt.Errorf("decrypt auth code: no key store")
		}
		code, err := n.dec.Decrypt(n.cfg.AuthCodeEnc)
		if err != nil {
			return nil, fmt.Errorf("decrypt auth code: %w", err)
		}
		return code, nil
	}
	return []byte(n.cfg.AuthCode), nil
}
