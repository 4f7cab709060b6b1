package mq

import "time"

const (
	RoutingKeyMailSent       = "mail.sent"
	RoutingKeyMailFailed     = "mail.failed"
	RoutingKeyDraftGenerated = "draft.generated"
)

type MailSentPayload struct {
	GuildID   string    `json:"guild_id"`
	UserID    string    `json:"user_id"`
	Command   string    `json:"command"`
	Transport string    `json:"transport"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	SentAt    time.Time `json:"sent_at"`
}

type MailFailedPayload struct {
	GuildID    string    `json:"guild_id"`
	UserID     string    `json:"user_id"`
	Command    string    `json:"command"`
	Transport  string    `json:"transport"`
	Recipient  string    `json:"recipient"`
	ErrorClass string    `json:"error_class"`
	Error      string    `json:"error"`
	FailedAt   time.Time `json:"failed_at"`
}

type DraftGeneratedPayload struct {
	GuildID     string    `json:"guild_id"`
	UserID      string    `json:"user_id"`
	Mode        string    `json:"mode"` // preview / send
	DraftLength int       `json:"draft_length"`
	CreatedAt   time.Time `json:"created_at"`
}
