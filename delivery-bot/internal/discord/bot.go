// Package discord connects the command dispatcher to Discord slash commands.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"draftmail/delivery-bot/internal/command"
	"draftmail/pkg/trace"
)

// Dispatcher runs commands.
type Dispatcher interface {
	Definitions() []command.Definition
	Dispatch(ctx context.Context, inv command.Invocation, r command.Responder)
}

// Config configures the gateway session.
type Config struct {
	Token string `yaml:"token"`
	// GuildID scopes command registration to one guild, which takes effect
	// immediately. Empty registers global commands.
	GuildID string `yaml:"guild_id"`
}

// Deduper claims an interaction so only one replica handles it.
type Deduper interface {
	AcquireOnce(ctx context.Context, scope, id string) bool
}

type Bot struct {
	session    *discordgo.Session
	dispatcher Dispatcher
	dedupe     Deduper
	guildID    string
	ctx        context.Context
	logger     *zap.Logger
}

func New(cfg Config, dispatcher Dispatcher, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	// each event is handled on its own goroutine
	session.SyncEvents = false

	return &Bot{
		session:    session,
		dispatcher: dispatcher,
		guildID:    cfg.GuildID,
		ctx:        context.Background(),
		logger:     logger,
	}, nil
}

// WithDeduper makes the bot skip interactions another replica already claimed.
func (b *Bot) WithDeduper(d Deduper) *Bot {
	b.dedupe = d
	return b
}

// Open connects to the gateway and registers the commands. ctx is the parent
// of every interaction's context.
func (b *Bot) Open(ctx context.Context) error {
	b.ctx = ctx
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("Bot is online", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	cmds := applicationCommands(b.dispatcher.Definitions())
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, cmds, discordgo.WithContext(ctx))
	if err != nil {
		_ = b.session.Close()
		return fmt.Errorf("failed to register commands: %w", err)
	}
	b.logger.Info("Slash commands synced", zap.Int("count", len(registered)), zap.String("guild_id", b.guildID))
	return nil
}

// Ping reports whether the gateway session is connected.
func (b *Bot) Ping(context.Context) error {
	b.session.RLock()
	defer b.session.RUnlock()
	if !b.session.DataReady {
		return errors.New("gateway not connected")
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.handle(s, i)
}

func (b *Bot) handle(api interactionAPI, i *discordgo.InteractionCreate) {
	ctx := trace.WithContext(b.ctx, i.ID)
	if b.dedupe != nil && !b.dedupe.AcquireOnce(ctx, "interaction", i.ID) {
		return
	}
	inv := toInvocation(i)
	b.dispatcher.Dispatch(ctx, inv, &responder{api: api, interaction: i.Interaction})
}
