package discord

import (
	"github.com/bwmarrin/discordgo"

	"draftmail/delivery-bot/internal/command"
)

// MaxMessageLength is Discord's limit on message content.
const MaxMessageLength = 2000

var adminPermission int64 = discordgo.PermissionAdministrator

// applicationCommands converts command definitions for registration.
func applicationCommands(defs []command.Definition) []*discordgo.ApplicationCommand {
	dmAllowed := false
	out := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, def := range defs {
		ac := &discordgo.ApplicationCommand{
			Name:         def.Name,
			Description:  def.Description,
			DMPermission: &dmAllowed,
		}
		if def.AdminOnly {
			// hides the command from non-admins; the dispatcher still checks
			ac.DefaultMemberPermissions = &adminPermission
		}
		for _, opt := range def.Options {
			ac.Options = append(ac.Options, &discordgo.ApplicationCommandOption{
				Type:        optionType(opt.Type),
				Name:        opt.Name,
				Description: opt.Description,
				Required:    opt.Required,
			})
		}
		out = append(out, ac)
	}
	return out
}

func optionType(t command.OptionType) discordgo.ApplicationCommandOptionType {
	if t == command.OptionBool {
		return discordgo.ApplicationCommandOptionBoolean
	}
	return discordgo.ApplicationCommandOptionString
}

// toInvocation translates a slash-command interaction.
func toInvocation(i *discordgo.InteractionCreate) command.Invocation {
	data := i.ApplicationCommandData()
	inv := command.Invocation{
		Command: data.Name,
		GuildID: i.GuildID,
		Options: make(map[string]any, len(data.Options)),
	}

	switch {
	case i.Member != nil:
		inv.IsAdmin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
		if i.Member.User != nil {
			inv.UserID = i.Member.User.ID
			inv.UserName = displayName(i.Member.Nick, i.Member.User)
		}
	case i.User != nil:
		inv.UserID = i.User.ID
		inv.UserName = displayName("", i.User)
	}

	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionBoolean:
			inv.Options[opt.Name] = opt.BoolValue()
		case discordgo.ApplicationCommandOptionString:
			inv.Options[opt.Name] = opt.StringValue()
		}
	}
	return inv
}

func displayName(nick string, u *discordgo.User) string {
	switch {
	case nick != "":
		return nick
	case u.GlobalName != "":
		return u.GlobalName
	default:
		return u.Username
	}
}

// truncate cuts content to Discord's message limit.
func truncate(content string) string {
	r := []rune(content)
	if len(r) <= MaxMessageLength {
		return content
	}
	return string(r[:MaxMessageLength-1]) + "…"
}
