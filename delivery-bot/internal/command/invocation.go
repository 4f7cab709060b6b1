package command

import (
	"context"
	"strings"
)

// Invocation is a platform-neutral command call.
type Invocation struct {
	Command  string
	GuildID  string
	UserID   string
	UserName string
	IsAdmin  bool
	Options  map[string]any
}

// String returns the trimmed string option name.
func (inv Invocation) String(name string) string {
	v, _ := inv.Options[name].(string)
	return strings.TrimSpace(v)
}

// DisplayName is UserName, or UserID when the platform sent no name.
func (inv Invocation) DisplayName() string {
	if inv.UserName != "" {
		return inv.UserName
	}
	return inv.UserID
}

// Bool returns the boolean option name and whether it was supplied.
func (inv Invocation) Bool(name string) (bool, bool) {
	v, ok := inv.Options[name].(bool)
	return v, ok
}

// Responder answers one invocation. Defer must be called before Followup;
// the first Followup fills the deferred placeholder.
type Responder interface {
	Defer(ctx context.Context, ephemeral bool) error
	Followup(ctx context.Context, content string, ephemeral bool) error
}

// OptionType is the type of a command option.
type OptionType int

const (
	OptionString OptionType = iota
	OptionBool
)

// Option describes one command argument.
type Option struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
}

// Definition describes a command for platform registration.
type Definition struct {
	Name        string
	Description string
	AdminOnly   bool
	Options     []Option
}
