// Package mailer resolves a guild's sender account and delivers mail with it.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	mqcontracts "draftmail/contracts/mq"
	"draftmail/delivery-bot/internal/store"
	"draftmail/pkg/logger"
	"draftmail/pkg/mail"
	"draftmail/pkg/metrics"
	"draftmail/pkg/mq"
	"draftmail/pkg/secret"
)

// ErrNoCredentials is returned when neither the guild nor the process has a sender.
var ErrNoCredentials = errors.New("no sender credentials configured")

// Source tells where resolved credentials came from.
type Source string

const (
	SourceGuild   Source = "guild"
	SourceDefault Source = "default"
)

// DeliveryError is a transport failure with its classification.
type DeliveryError struct {
	Class mail.Class
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed (%s): %v", e.Class, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Request is one outbound email.
type Request struct {
	GuildID string
	UserID  string
	Command string
	To      []string
	Subject string
	Body    string
}

// Result describes a completed send.
type Result struct {
	From   string
	Source Source
}

// Status reports which account a guild sends from. It never carries the secret.
type Status struct {
	Source    Source
	Address   string
	UpdatedAt time.Time
}

type Mailer struct {
	store     store.Store
	secrets   secret.Backend
	transport mail.Transport
	publisher mq.EventPublisher
	fallback  mail.Credentials
	logger    *zap.Logger
}

func NewMailer(
	st store.Store,
	secrets secret.Backend,
	transport mail.Transport,
	publisher mq.EventPublisher,
	fallback mail.Credentials,
	logger *zap.Logger,
) *Mailer {
	if publisher == nil {
		publisher = mq.NopPublisher{}
	}
	return &Mailer{
		store:     st,
		secrets:   secrets,
		transport: transport,
		publisher: publisher,
		fallback:  fallback,
		logger:    logger,
	}
}

// Resolve returns the guild's own credentials, else the process default.
func (m *Mailer) Resolve(ctx context.Context, guildID string) (mail.Credentials, Source, error) {
	if guildID != "" {
		acc, err := m.store.Get(ctx, guildID)
		switch {
		case err == nil:
			plaintext, err := m.secrets.Open(ctx, acc.Secret)
			if err != nil {
				return mail.Credentials{}, "", fmt.Errorf("failed to open guild secret: %w", err)
			}
			creds := mail.Credentials{Address: acc.Address, Secret: plaintext}
			if creds.Valid() {
				return creds, SourceGuild, nil
			}
		case !errors.Is(err, store.ErrNotFound):
			return mail.Credentials{}, "", fmt.Errorf("failed to load guild account: %w", err)
		}
	}

	if m.fallback.Valid() {
		return m.fallback, SourceDefault, nil
	}
	return mail.Credentials{}, "", ErrNoCredentials
}

// Send resolves credentials for req.GuildID and delivers the message.
func (m *Mailer) Send(ctx context.Context, req Request) (Result, error) {
	log := logger.WithTrace(ctx, m.logger).With(
		zap.String("guild_id", req.GuildID),
		zap.String("command", req.Command),
		zap.String("transport", m.transport.Name()),
	)

	creds, source, err := m.Resolve(ctx, req.GuildID)
	if err != nil {
		return Result{}, err
	}

	msg := &mail.Message{
		From:     creds.Address,
		To:       req.To,
		Subject:  req.Subject,
		TextBody: req.Body,
	}

	if err := m.transport.Send(ctx, creds, msg); err != nil {
		class := mail.Classify(err)
		metrics.IncrementMailDelivery(m.transport.Name(), "failed")
		log.Error("Failed to send mail",
			zap.String("source", string(source)),
			zap.String("error_class", string(class)),
			zap.Error(err),
		)
		m.publish(ctx, mqcontracts.RoutingKeyMailFailed, mqcontracts.MailFailedPayload{
			GuildID:    req.GuildID,
			UserID:     req.UserID,
			Command:    req.Command,
			Transport:  m.transport.Name(),
			Recipient:  strings.Join(req.To, ", "),
			ErrorClass: string(class),
			Error:      err.Error(),
			FailedAt:   time.Now().UTC(),
		})
		return Result{}, &DeliveryError{Class: class, Err: err}
	}

	metrics.IncrementMailDelivery(m.transport.Name(), "sent")
	log.Info("Mail sent", zap.String("source", string(source)), zap.String("from", creds.Address))
	m.publish(ctx, mqcontracts.RoutingKeyMailSent, mqcontracts.MailSentPayload{
		GuildID:   req.GuildID,
		UserID:    req.UserID,
		Command:   req.Command,
		Transport: m.transport.Name(),
		Sender:    creds.Address,
		Recipient: strings.Join(req.To, ", "),
		Subject:   req.Subject,
		SentAt:    time.Now().UTC(),
	})
	return Result{From: creds.Address, Source: source}, nil
}

// Configure seals the secret and stores the guild's account, replacing any previous one.
func (m *Mailer) Configure(ctx context.Context, guildID, address, plaintext string) error {
	ref, err := m.secrets.Seal(ctx, plaintext)
	if err != nil {
		return fmt.Errorf("failed to seal secret: %w", err)
	}

	acc := store.Account{
		Address:   strings.TrimSpace(address),
		Secret:    ref,
		UpdatedAt: time.Now().UTC(),
	}
	if err := m.store.Put(ctx, guildID, acc); err != nil {
		return fmt.Errorf("failed to store guild account: %w", err)
	}

	logger.WithTrace(ctx, m.logger).Info("Guild mail account configured",
		zap.String("guild_id", guildID),
		zap.String("address", acc.Address),
		zap.Stringer("secret", ref),
	)
	return nil
}

// Status reports which account guildID currently sends from.
func (m *Mailer) Status(ctx context.Context, guildID string) (Status, error) {
	acc, err := m.store.Get(ctx, guildID)
	switch {
	case err == nil:
		return Status{Source: SourceGuild, Address: acc.Address, UpdatedAt: acc.UpdatedAt}, nil
	case !errors.Is(err, store.ErrNotFound):
		return Status{}, fmt.Errorf("failed to load guild account: %w", err)
	}

	if m.fallback.Valid() {
		return Status{Source: SourceDefault, Address: m.fallback.Address}, nil
	}
	return Status{}, ErrNoCredentials
}

// DraftGenerated records that a draft was produced for a guild.
func (m *Mailer) DraftGenerated(ctx context.Context, guildID, userID, mode string, length int) {
	m.publish(ctx, mqcontracts.RoutingKeyDraftGenerated, mqcontracts.DraftGeneratedPayload{
		GuildID:     guildID,
		UserID:      userID,
		Mode:        mode,
		DraftLength: length,
		CreatedAt:   time.Now().UTC(),
	})
}

// publish is best effort; delivery events never fail a command.
func (m *Mailer) publish(ctx context.Context, routingKey string, payload any) {
	if err := m.publisher.Publish(ctx, routingKey, payload); err != nil {
		logger.WithTrace(ctx, m.logger).Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
