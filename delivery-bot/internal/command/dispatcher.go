// Package command implements the bot's chat commands independently of the chat platform.
package command

import (
	"context"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"draftmail/delivery-bot/internal/service/mailer"
	"draftmail/pkg/logger"
	"draftmail/pkg/mail"
	"draftmail/pkg/metrics"
	"draftmail/pkg/rbac"
	"draftmail/pkg/trace"
)

// Draft modes for draft-mail when the send option is absent.
const (
	DraftModePreview = "preview"
	DraftModeSend    = "send"
)

// DefaultDraftSubject is used when draft-mail sends without a subject.
const DefaultDraftSubject = "Drafted email"

// Drafter produces email text from an idea.
type Drafter interface {
	Draft(ctx context.Context, idea string) (string, error)
}

// Mailer sends mail and manages guild accounts.
type Mailer interface {
	Send(ctx context.Context, req mailer.Request) (mailer.Result, error)
	Configure(ctx context.Context, guildID, address, plaintext string) error
	Status(ctx context.Context, guildID string) (mailer.Status, error)
	DraftGenerated(ctx context.Context, guildID, userID, mode string, length int)
}

// Config holds dispatcher settings.
type Config struct {
	DraftMode         string   `yaml:"mode"` // preview | send
	DraftSubject      string   `yaml:"subject"`
	DefaultRecipients []string `yaml:"-"`
}

type handlerFunc func(ctx context.Context, inv Invocation) (string, *Failure)

type command struct {
	def        Definition
	permission string
	// ephemeral decides the visibility of the deferred reply.
	ephemeral  func(inv Invocation) bool
	handle     handlerFunc
}

type Dispatcher struct {
	commands map[string]*command
	mailer   Mailer
	drafter  Drafter
	validate *validator.Validate
	cfg      Config
	logger   *zap.Logger
}

func NewDispatcher(cfg Config, m Mailer, drafter Drafter, logger *zap.Logger) *Dispatcher {
	if cfg.DraftMode == "" {
		cfg.DraftMode = DraftModePreview
	}
	if cfg.DraftSubject == "" {
		cfg.DraftSubject = DefaultDraftSubject
	}

	d := &Dispatcher{
		commands: make(map[string]*command),
		mailer:   m,
		drafter:  drafter,
		validate: validator.New(),
		cfg:      cfg,
		logger:   logger,
	}
	d.register()
	return d
}

// Definitions lists the commands for registration, sorted by name.
func (d *Dispatcher) Definitions() []Definition {
	defs := make([]Definition, 0, len(d.commands))
	for _, c := range d.commands {
		defs = append(defs, c.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Dispatch runs inv to completion: defer, handle, one followup.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation, r Responder) {
	ctx = trace.Ensure(ctx)
	log := logger.WithTrace(ctx, d.logger).With(
		zap.String("command", inv.Command),
		zap.String("guild_id", inv.GuildID),
		zap.String("user_id", inv.UserID),
	)

	cmd, ok := d.commands[inv.Command]
	if !ok {
		log.Warn("Unknown command")
		d.reply(ctx, log, r, true, msgUnknownCommand)
		metrics.IncrementCommand(inv.Command, "unknown")
		return
	}

	if err := rbac.CheckPermission(rbac.RoleFor(inv.IsAdmin), cmd.permission); err != nil {
		f := &Failure{Kind: KindPermission, UserMessage: msgPermissionDenied, Err: err}
		log.Info("Command denied", zap.String("kind", string(f.Kind)), zap.Error(err))
		d.reply(ctx, log, r, true, f.UserMessage)
		metrics.IncrementCommand(inv.Command, string(f.Kind))
		return
	}

	ephemeral := cmd.ephemeral(inv)
	if err := r.Defer(ctx, ephemeral); err != nil {
		log.Error("Failed to defer response", zap.Error(err))
		metrics.IncrementCommand(inv.Command, "defer_failed")
		return
	}

	content, f := cmd.handle(ctx, inv)
	if f != nil {
		d.logFailure(log, f)
		metrics.IncrementCommand(inv.Command, string(f.Kind))
		d.followup(ctx, log, r, f.UserMessage, ephemeral)
		return
	}

	metrics.IncrementCommand(inv.Command, "success")
	log.Info("Command completed")
	d.followup(ctx, log, r, content, ephemeral)
}

func (d *Dispatcher) reply(ctx context.Context, log *zap.Logger, r Responder, ephemeral bool, content string) {
	if err := r.Defer(ctx, ephemeral); err != nil {
		log.Error("Failed to defer response", zap.Error(err))
		return
	}
	d.followup(ctx, log, r, content, ephemeral)
}

func (d *Dispatcher) followup(ctx context.Context, log *zap.Logger, r Responder, content string, ephemeral bool) {
	if err := r.Followup(ctx, content, ephemeral); err != nil {
		log.Error("Failed to send followup", zap.Error(err))
	}
}

func (d *Dispatcher) logFailure(log *zap.Logger, f *Failure) {
	fields := []zap.Field{zap.String("kind", string(f.Kind)), zap.String("user_message", f.UserMessage)}
	if f.Err != nil {
		fields = append(fields, zap.Error(f.Err))
	}
	switch f.Kind {
	case KindValidation, KindPermission:
		log.Info("Command rejected", fields...)
	case KindConfiguration:
		log.Warn("Command failed", fields...)
	default:
		log.Error("Command failed", fields...)
	}
}

// sendFailure maps a mailer error to a user-facing failure.
func sendFailure(err error) *Failure {
	if errors.Is(err, mailer.ErrNoCredentials) {
		return &Failure{Kind: KindConfiguration, UserMessage: msgNoCredentials, Err: err}
	}

	var de *mailer.DeliveryError
	if errors.As(err, &de) {
		switch de.Class {
		case mail.ClassAuth:
			return &Failure{Kind: KindConfiguration, UserMessage: msgSenderRejected, Err: err}
		case mail.ClassRejected:
			return upstreamFailure(msgMessageRejected, err)
		case mail.ClassTemporary:
			return upstreamFailure(msgMailServerBusy, err)
		}
	}
	return upstreamFailure(msgSendFailed, err)
}
