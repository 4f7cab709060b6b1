package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// interactionAPI is the part of *discordgo.Session a responder needs.
type interactionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// responder answers one interaction.
type responder struct {
	api         interactionAPI
	interaction *discordgo.Interaction
}

func (r *responder) Defer(ctx context.Context, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	return r.api.InteractionRespond(r.interaction, resp, discordgo.WithContext(ctx))
}

func (r *responder) Followup(ctx context.Context, content string, ephemeral bool) error {
	params := &discordgo.WebhookParams{Content: truncate(content)}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	_, err := r.api.FollowupMessageCreate(r.interaction, true, params, discordgo.WithContext(ctx))
	return err
}
