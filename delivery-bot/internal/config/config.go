package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"draftmail/delivery-bot/internal/command"
	"draftmail/delivery-bot/internal/discord"
	"draftmail/delivery-bot/internal/store"
	"draftmail/pkg/config"
	"draftmail/pkg/mail"
	"draftmail/pkg/secret"
)

// ServiceName names the config subdirectory of this service.
const ServiceName = "delivery-bot"

// DraftConfig configures calls to the draft service and draft-mail behaviour.
type DraftConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	Mode    string        `yaml:"mode"` // preview | send
	Subject string        `yaml:"subject"`
}

// SenderConfig is the process-wide default sender used when a guild has none.
type SenderConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
}

// DedupeConfig enables cross-replica interaction de-duplication in Redis.
type DedupeConfig struct {
	Enabled bool               `yaml:"enabled"`
	TTL     time.Duration      `yaml:"ttl"`
	Redis   config.RedisConfig `yaml:"redis"`
}

type Config struct {
	Env     string              `yaml:"-"`
	Server  config.ServerConfig `yaml:"server"`
	Log     config.LogConfig    `yaml:"log"`
	JWT     config.JWTConfig    `yaml:"jwt"`
	MQ      config.MQConfig     `yaml:"mq"`
	Discord discord.Config      `yaml:"discord"`
	Draft   DraftConfig         `yaml:"draft"`
	Sender  SenderConfig        `yaml:"sender"`
	Mail    mail.Config         `yaml:"mail"`
	Store   store.Config        `yaml:"store"`
	Secrets secret.Config       `yaml:"secrets"`
	Dedupe  DedupeConfig        `yaml:"dedupe"`
}

// Commands returns the dispatcher settings.
func (c *Config) Commands() command.Config {
	return command.Config{
		DraftMode:         c.Draft.Mode,
		DraftSubject:      c.Draft.Subject,
		DefaultRecipients: c.Mail.DefaultRecipients,
	}
}

func defaults() Config {
	return Config{
		Server: config.ServerConfig{Port: ":8090"},
		Log:    config.LogConfig{Level: "info"},
		Draft: DraftConfig{
			URL:     "http://localhost:8000/generate",
			Timeout: 90 * time.Second,
			Mode:    command.DraftModePreview,
			Subject: command.DefaultDraftSubject,
		},
		Mail: mail.Config{
			Provider: "smtp",
			SMTP:     mail.DefaultSMTPConfig(),
		},
		Store: store.Config{
			Backend: "file",
			Path:    store.DefaultPath,
		},
		Secrets: secret.Config{
			Backend: secret.SchemePlain,
			KeyEnv:  secret.DefaultKeyEnv,
		},
		Dedupe: DedupeConfig{TTL: 15 * time.Minute},
	}
}

// Load reads the layered config from CONFIG_DIR/delivery-bot and the environment.
func Load() (*Config, error) {
	cfg, err := LoadUnvalidated()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the required-settings check, for tools
// that only touch the guild store.
func LoadUnvalidated() (*Config, error) {
	cfg := defaults()
	cfg.Env = config.GetConfigEnv()

	dir := filepath.Join(config.GetConfigDir(), ServiceName)
	if err := config.LoadInto(cfg.Env, dir, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.ClearUnresolved(
		&cfg.JWT.Secret,
		&cfg.MQ.URL,
		&cfg.Discord.Token,
		&cfg.Discord.GuildID,
		&cfg.Sender.Address,
		&cfg.Sender.Password,
		&cfg.Store.Redis.Password,
		&cfg.Store.DB.Password,
		&cfg.Dedupe.Redis.Password,
	)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideLogFromEnv(&cfg.Log)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Store.Redis)
	config.OverrideDBFromEnv(&cfg.Store.DB)
	overrideBotFromEnv(&cfg)
	return &cfg, nil
}

func overrideBotFromEnv(cfg *Config) {
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_GUILD_ID"); v != "" {
		cfg.Discord.GuildID = v
	}
	if v := os.Getenv("DRAFT_SERVICE_URL"); v != "" {
		cfg.Draft.URL = v
	}
	if v := os.Getenv("DRAFT_MODE"); v != "" {
		cfg.Draft.Mode = v
	}
	if v := os.Getenv("GMAIL_ADDRESS"); v != "" {
		cfg.Sender.Address = v
	}
	if v := os.Getenv("GMAIL_APP_PASSWORD"); v != "" {
		cfg.Sender.Password = v
	}
	if v := os.Getenv("GUILD_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MAIL_RECIPIENTS"); v != "" {
		cfg.Mail.DefaultRecipients = splitList(v)
	}
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Discord.Token == "" {
		errs = append(errs, errors.New("discord.token (DISCORD_BOT_TOKEN) is required"))
	}
	if c.Draft.URL == "" {
		errs = append(errs, errors.New("draft.url (DRAFT_SERVICE_URL) is required"))
	}
	if c.Sender.Address == "" {
		errs = append(errs, errors.New("sender.address (GMAIL_ADDRESS) is required"))
	}
	if c.Sender.Password == "" {
		errs = append(errs, errors.New("sender.password (GMAIL_APP_PASSWORD) is required"))
	}
	switch c.Draft.Mode {
	case command.DraftModePreview, command.DraftModeSend:
	default:
		errs = append(errs, fmt.Errorf("draft.mode must be %q or %q, got %q", command.DraftModePreview, command.DraftModeSend, c.Draft.Mode))
	}
	if c.Dedupe.Enabled && c.Dedupe.Redis.Addr == "" {
		errs = append(errs, errors.New("dedupe.redis.addr is required when dedupe is enabled"))
	}
	if c.Draft.Timeout <= 0 {
		errs = append(errs, errors.New("draft.timeout must be positive"))
	}
	validate := validator.New()
	for _, addr := range c.Mail.DefaultRecipients {
		if err := validate.Var(addr, "email"); err != nil {
			errs = append(errs, fmt.Errorf("mail.default_recipients: %q is not an email address", addr))
		}
	}
	return errors.Join(errs...)
}

// DefaultSender returns the process-wide fallback credentials.
func (c *Config) DefaultSender() mail.Credentials {
	return mail.Credentials{Address: c.Sender.Address, Secret: c.Sender.Password}
}
