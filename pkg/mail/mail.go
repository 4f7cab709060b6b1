// Package mail defines outbound messages and the transports that deliver them.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Credentials is a resolved sender pair. It is never persisted or logged.
type Credentials struct {
	Address string
	Secret  string
}

// Valid reports whether both halves of the pair are present.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.Address) != "" && c.Secret != ""
}

// Message is a plain-text email built per command invocation.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
}

// Validate checks the fields every transport needs.
func (m *Message) Validate() error {
	if m.From == "" {
		return errors.New("missing sender address")
	}
	if len(m.To) == 0 {
		return errors.New("missing email recipient")
	}
	return nil
}

// Transport delivers messages authenticated with the given credentials.
type Transport interface {
	Send(ctx context.Context, creds Credentials, msg *Message) error
	Name() string
}

// Encryption is the channel security used for SMTP.
type Encryption string

const (
	EncryptionNone     Encryption = "none"
	EncryptionTLS      Encryption = "tls"
	EncryptionStartTLS Encryption = "starttls"
)

// AuthType is the SMTP authentication mechanism.
type AuthType string

const (
	AuthPlain   AuthType = "plain"
	AuthLogin   AuthType = "login"
	AuthCramMD5 AuthType = "crammd5"
)

// SMTPConfig configures the smtp transport.
type SMTPConfig struct {
	Host           string     `yaml:"host"`
	Port           int        `yaml:"port"`
	Encryption     Encryption `yaml:"encryption"`
	AuthType       AuthType   `yaml:"auth_type"`
	CertValidation bool       `yaml:"cert_validation"`
}

// SESConfig configures the ses transport.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Config selects a transport.
type Config struct {
	Provider string     `yaml:"provider"` // smtp | ses | stdout
	SMTP     SMTPConfig `yaml:"smtp"`
	SES      SESConfig  `yaml:"ses"`

	// DefaultRecipients receive send-mail messages that name no recipient.
	DefaultRecipients []string `yaml:"default_recipients"`
}

// DefaultSMTPConfig is an implicit-TLS submission endpoint on smtp.gmail.com.
func DefaultSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:           "smtp.gmail.com",
		Port:           465,
		Encryption:     EncryptionTLS,
		AuthType:       AuthPlain,
		CertValidation: true,
	}
}

// NewTransport creates the configured transport.
func NewTransport(ctx context.Context, cfg Config) (Transport, error) {
	switch cfg.Provider {
	case "smtp", "":
		return NewSMTPTransport(cfg.SMTP), nil
	case "ses":
		return NewSESTransport(ctx, cfg.SES)
	case "stdout":
		return NewStdoutTransport(), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Provider)
	}
}
