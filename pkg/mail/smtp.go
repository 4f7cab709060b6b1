package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	simplemail "github.com/xhit/go-simple-mail/v2"
)

// SMTPTransport opens one authenticated SMTP session per message.
type SMTPTransport struct {
	cfg SMTPConfig
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	d := DefaultSMTPConfig()
	if cfg.Host == "" {
		cfg.Host = d.Host
	}
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	if cfg.Encryption == "" {
		cfg.Encryption = d.Encryption
	}
	if cfg.AuthType == "" {
		cfg.AuthType = d.AuthType
	}
	return &SMTPTransport{cfg: cfg}
}

// Send delivers msg using creds for SMTP authentication.
func (t *SMTPTransport) Send(_ context.Context, creds Credentials, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	email := t.buildMessage(msg)
	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	client, err := t.server(creds).Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if err := email.Send(client); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) buildMessage(msg *Message) *simplemail.Email {
	email := simplemail.NewMSG()
	email.SetFrom(msg.From).
		AddTo(msg.To...).
		SetSubject(msg.Subject).
		SetBody(simplemail.TextPlain, msg.TextBody)
	return email
}

func (t *SMTPTransport) server(creds Credentials) *simplemail.SMTPServer {
	srv := simplemail.NewSMTPClient()

	srv.ConnectTimeout = 30 * time.Second
	srv.SendTimeout = 30 * time.Second
	srv.Host = t.cfg.Host
	srv.Port = t.cfg.Port
	srv.Username = creds.Address
	srv.Password = creds.Secret

	switch t.cfg.Encryption {
	case EncryptionTLS:
		srv.Encryption = simplemail.EncryptionSSLTLS
	case EncryptionStartTLS:
		srv.Encryption = simplemail.EncryptionSTARTTLS
	default:
		srv.Encryption = simplemail.EncryptionNone
	}
	srv.TLSConfig = &tls.Config{ServerName: srv.Host, InsecureSkipVerify: !t.cfg.CertValidation}

	switch t.cfg.AuthType {
	case AuthLogin:
		srv.Authentication = simplemail.AuthLogin
	case AuthCramMD5:
		srv.Authentication = simplemail.AuthCRAMMD5
	default:
		srv.Authentication = simplemail.AuthPlain
	}

	return srv
}
