package command

import (
	"context"
	"errors"
	"fmt"

	"draftmail/delivery-bot/internal/service/mailer"
	"draftmail/pkg/rbac"
	"draftmail/pkg/secret"
)

const (
	NameConfigureMailAccount = "configure-mail-account"
	NameSendMail             = "send-mail"
	NameDraftMail            = "draft-mail"
	NameMailAccountStatus    = "mail-account-status"
)

func always(v bool) func(Invocation) bool {
	return func(Invocation) bool { return v }
}

func (d *Dispatcher) register() {
	d.add(&command{
		def: Definition{
			Name:        NameConfigureMailAccount,
			Description: "Set the email account this server sends from",
			Options: []Option{
				{Name: "address", Description: "Sender email address", Type: OptionString, Required: true},
				{Name: "app_password", Description: "App password for the sender account", Type: OptionString, Required: true},
			},
		},
		permission: rbac.PermissionConfigureAccount,
		ephemeral:  always(true),
		handle:     d.configureMailAccount,
	})
	d.add(&command{
		def: Definition{
			Name:        NameSendMail,
			Description: "Send an email, to the server's mailing list unless a recipient is given",
			Options: []Option{
				{Name: "body", Description: "Email body", Type: OptionString, Required: true},
				{Name: "to", Description: "Recipient email address (default: the mailing list)", Type: OptionString},
				{Name: "subject", Description: "Email subject (default: Message from <your name>)", Type: OptionString},
			},
		},
		permission: rbac.PermissionSendMail,
		ephemeral:  always(false),
		handle:     d.sendMail,
	})
	d.add(&command{
		def: Definition{
			Name:        NameDraftMail,
			Description: "Draft an email from an idea, then preview or send it",
			Options: []Option{
				{Name: "idea", Description: "What the email should say", Type: OptionString, Required: true},
				{Name: "to", Description: "Recipient email address (default when sending: the mailing list)", Type: OptionString},
				{Name: "subject", Description: "Email subject", Type: OptionString},
				{Name: "send", Description: "Send the draft instead of previewing it", Type: OptionBool},
			},
		},
		permission: rbac.PermissionDraftMail,
		ephemeral:  func(inv Invocation) bool { return !d.sendDraft(inv) },
		handle:     d.draftMail,
	})
	d.add(&command{
		def: Definition{
			Name:        NameMailAccountStatus,
			Description: "Show which email account this server sends from",
		},
		permission: rbac.PermissionViewAccount,
		ephemeral:  always(true),
		handle:     d.mailAccountStatus,
	})
}

func (d *Dispatcher) add(c *command) {
	c.def.AdminOnly = rbac.AdminOnly(c.permission)
	d.commands[c.def.Name] = c
}

// sendDraft resolves draft-mail's mode: the send option wins over config.
func (d *Dispatcher) sendDraft(inv Invocation) bool {
	if v, ok := inv.Bool("send"); ok {
		return v
	}
	return d.cfg.DraftMode == DraftModeSend
}

func (d *Dispatcher) validAddress(addr string) bool {
	return d.validate.Var(addr, "required,email") == nil
}

// recipients returns the to option, or the configured mailing list when it is absent.
func (d *Dispatcher) recipients(inv Invocation) ([]string, *Failure) {
	to := inv.String("to")
	if to == "" {
		if len(d.cfg.DefaultRecipients) == 0 {
			return nil, validationFailure(msgNoRecipients)
		}
		return d.cfg.DefaultRecipients, nil
	}
	if !d.validAddress(to) {
		return nil, validationFailure(fmt.Sprintf("❌ `%s` is not a valid email address.", to))
	}
	return []string{to}, nil
}

func describeRecipients(to []string) string {
	if len(to) == 1 {
		return "`" + to[0] + "`"
	}
	return fmt.Sprintf("the mailing list (%d recipients)", len(to))
}

func (d *Dispatcher) configureMailAccount(ctx context.Context, inv Invocation) (string, *Failure) {
	if inv.GuildID == "" {
		return "", validationFailure(msgNoGuild)
	}

	address := inv.String("address")
	password := inv.String("app_password")
	if !d.validAddress(address) {
		return "", validationFailure(fmt.Sprintf("❌ `%s` is not a valid email address.", address))
	}
	if password == "" {
		return "", validationFailure("❌ The app password cannot be empty.")
	}

	if err := d.mailer.Configure(ctx, inv.GuildID, address, password); err != nil {
		if errors.Is(err, secret.ErrSealUnsupported) {
			return "", &Failure{Kind: KindConfiguration, UserMessage: msgSealUnsupported, Err: err}
		}
		return "", internalFailure(err)
	}
	return fmt.Sprintf("✅ This server will now send email from `%s`.", address), nil
}

func (d *Dispatcher) sendMail(ctx context.Context, inv Invocation) (string, *Failure) {
	body := inv.String("body")
	if body == "" {
		return "", validationFailure("❌ The message cannot be empty.")
	}
	to, f := d.recipients(inv)
	if f != nil {
		return "", f
	}

	subject := inv.String("subject")
	if subject == "" {
		subject = "Message from " + inv.DisplayName()
	}

	_, err := d.mailer.Send(ctx, mailer.Request{
		GuildID: inv.GuildID,
		UserID:  inv.UserID,
		Command: inv.Command,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return "", sendFailure(err)
	}
	return fmt.Sprintf("✅ Email sent to %s.", describeRecipients(to)), nil
}

func (d *Dispatcher) draftMail(ctx context.Context, inv Invocation) (string, *Failure) {
	idea := inv.String("idea")
	if idea == "" {
		return "", validationFailure("❌ The idea cannot be empty.")
	}

	send := d.sendDraft(inv)
	var to []string
	if send {
		var f *Failure
		if to, f = d.recipients(inv); f != nil {
			return "", f
		}
	}

	draft, err := d.drafter.Draft(ctx, idea)
	if err != nil {
		return "", upstreamFailure(msgDraftFailed, err)
	}

	mode := DraftModePreview
	if send {
		mode = DraftModeSend
	}
	d.mailer.DraftGenerated(ctx, inv.GuildID, inv.UserID, mode, len(draft))

	if !send {
		return "📝 **Draft preview:**\n\n" + draft, nil
	}

	subject := inv.String("subject")
	if subject == "" {
		subject = d.cfg.DraftSubject
	}
	if _, err := d.mailer.Send(ctx, mailer.Request{
		GuildID: inv.GuildID,
		UserID:  inv.UserID,
		Command: inv.Command,
		To:      to,
		Subject: subject,
		Body:    draft,
	}); err != nil {
		return "", sendFailure(err)
	}
	return fmt.Sprintf("✅ Drafted email sent to %s:\n\n%s", describeRecipients(to), draft), nil
}

func (d *Dispatcher) mailAccountStatus(ctx context.Context, inv Invocation) (string, *Failure) {
	if inv.GuildID == "" {
		return "", validationFailure(msgNoGuild)
	}

	st, err := d.mailer.Status(ctx, inv.GuildID)
	switch {
	case errors.Is(err, mailer.ErrNoCredentials):
		return "", &Failure{Kind: KindConfiguration, UserMessage: msgNoCredentials, Err: err}
	case err != nil:
		return "", internalFailure(err)
	}

	if st.Source == mailer.SourceGuild {
		if st.UpdatedAt.IsZero() {
			return fmt.Sprintf("This server sends from its own account `%s`.", st.Address), nil
		}
		return fmt.Sprintf("This server sends from its own account `%s` (configured %s).",
			st.Address, st.UpdatedAt.Format("2006-01-02 15:04 MST")), nil
	}
	return fmt.Sprintf("This server has no account of its own and sends from the default account `%s`.", st.Address), nil
}
