package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/GoEventHub/GoEventHub/internal/config"
)

// TLS policy names accepted in the configuration.
const (
	TLSPolicyMandatory     = "mandatory"
	TLSPolicyOpportunistic = "opportunistic"
	TLSPolicyNone          = "none"
)

// ErrUnknownTLSPolicy is returned for unsupported tls policy names.
var ErrUnknownTLSPolicy = errors.New("unknown tls policy")

// SMTPSender delivers messages through an SMTP server.
type SMTPSender struct {
	cfg    config.Mail
	client *gomail.Client
}

// NewSMTPSender creates the SMTP client. No connection is opened before the first Send.
func NewSMTPSender(cfg config.Mail) (*SMTPSender, error) {
	policy, err := tlsPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}

	opts := []gomail.Option{gomail.WithTLSPolicy(policy)}

	if cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(cfg.Port))
	}

	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}

	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPSender{cfg: cfg, client: client}, nil
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	m, err := build(s.cfg, msg)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}

	return nil
}

func build(cfg config.Mail, msg *Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()

	var err error
	if cfg.FromName != "" {
		err = m.FromFormat(cfg.FromName, cfg.From)
	} else {
		err = m.From(cfg.From)
	}

	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}

	if msg.ToName != "" {
		err = m.AddToFormat(msg.ToName, msg.To)
	} else {
		err = m.To(msg.To)
	}

	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetMessageID()
	m.SetDate()
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)

	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}

	for _, a := range msg.Attachments {
		var opts []gomail.FileOption
		if a.ContentType != "" {
			opts = append(opts, gomail.WithFileContentType(gomail.ContentType(a.ContentType)))
		}

		if err := m.AttachReader(a.Name, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", a.Name, err)
		}
	}

	return m, nil
}

func tlsPolicy(name string) (gomail.TLSPolicy, error) {
	switch strings.ToLower(name) {
	case "", TLSPolicyOpportunistic:
		return gomail.TLSOpportunistic, nil
	case TLSPolicyMandatory:
		return gomail.TLSMandatory, nil
	case TLSPolicyNone:
		return gomail.NoTLS, nil
	default:
		return gomail.NoTLS, fmt.Errorf("%w: %q", ErrUnknownTLSPolicy, name)
	}
}

// NewSender returns an SMTPSender when mail is enabled, a LogSender otherwise.
func NewSender(cfg config.Mail) (Sender, error) {
	if !cfg.Enabled {
		return LogSender{}, nil
	}

	return NewSMTPSender(cfg)
}
