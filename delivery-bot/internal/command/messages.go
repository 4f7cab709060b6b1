package command

const (
	msgUnknownCommand   = "Unknown command."
	msgPermissionDenied = "❌ You need administrator permission to use this command."
	msgInternal         = "❌ Something went wrong. Please try again."
	msgNoCredentials    = "❌ No mail account is configured for this server. Ask an administrator to run /configure-mail-account."
	msgSendFailed       = "❌ Failed to send email."
	msgSenderRejected   = "❌ The mail server rejected this server's sender credentials. Ask an administrator to run /configure-mail-account."
	msgMessageRejected  = "❌ The mail server refused the message. Check the recipient address."
	msgMailServerBusy   = "❌ The mail server is busy. Please try again later."
	msgDraftFailed      = "❌ Could not generate a draft right now. Please try again later."
	msgNoGuild          = "❌ This command can only be used in a server."
	msgNoRecipients     = "❌ No recipient given and no mailing list is configured. Pass `to`."
	msgSealUnsupported  = "❌ This bot's secret backend cannot store new passwords. Ask the bot operator to switch `secrets.backend`."
)
