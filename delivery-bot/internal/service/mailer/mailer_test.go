package mailer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "draftmail/contracts/mq"
	"draftmail/delivery-bot/internal/store"
	"draftmail/pkg/mail"
	"draftmail/pkg/secret"
)

type sentMail struct {
	creds mail.Credentials
	msg   *mail.Message
}

type fakeTransport struct {
	sent []sentMail
	err  error
}

func (f *fakeTransport) Send(_ context.Context, creds mail.Credentials, msg *mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{creds: creds, msg: msg})
	return nil
}

func (f *fakeTransport) Name() string { return "fake" }

type fakePublisher struct {
	keys []string
}

func (f *fakePublisher) Publish(_ context.Context, routingKey string, _ any) error {
	f.keys = append(f.keys, routingKey)
	return nil
}

func (f *fakePublisher) Close() {}

var defaultCreds = mail.Credentials{Address: "default@example.com", Secret: "default-pass"}

func newMailer(t *testing.T, fallback mail.Credentials) (*Mailer, *fakeTransport, *fakePublisher, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "guilds.json"), zap.NewNop())
	require.NoError(t, err)

	key, err := secret.GenerateKey()
	require.NoError(t, err)
	t.Setenv("MAILER_TEST_KEY", key)
	backend, err := secret.NewAEADBackendFromEnv("MAILER_TEST_KEY")
	require.NoError(t, err)

	tr := &fakeTransport{}
	pub := &fakePublisher{}
	return NewMailer(st, backend, tr, pub, fallback, zap.NewNop()), tr, pub, st
}

func TestSend_GuildCredentialsBeatDefault(t *testing.T) {
	m, tr, pub, _ := newMailer(t, defaultCreds)
	ctx := context.Background()

	require.NoError(t, m.Configure(ctx, "guild-1", "guild@example.com", "guild-pass"))

	res, err := m.Send(ctx, Request{GuildID: "guild-1", To: []string{"to@example.com"}, Subject: "Hi", Body: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, SourceGuild, res.Source)

	require.Len(t, tr.sent, 1)
	assert.Equal(t, mail.Credentials{Address: "guild@example.com", Secret: "guild-pass"}, tr.sent[0].creds)
	assert.Equal(t, "guild@example.com", tr.sent[0].msg.From)
	assert.Equal(t, []string{"to@example.com"}, tr.sent[0].msg.To)
	assert.Equal(t, []string{mqcontracts.RoutingKeyMailSent}, pub.keys)
}

func TestSend_FallsBackToDefault(t *testing.T) {
	m, tr, _, _ := newMailer(t, defaultCreds)

	res, err := m.Send(context.Background(), Request{GuildID: "other", To: []string{"to@example.com"}, Subject: "Hi", Body: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, defaultCreds, tr.sent[0].creds)
}

func TestSend_NoCredentials(t *testing.T) {
	m, tr, _, _ := newMailer(t, mail.Credentials{})

	_, err := m.Send(context.Background(), Request{GuildID: "g", To: []string{"to@example.com"}})
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Empty(t, tr.sent)
}

func TestSend_TransportFailurePublishesFailedEvent(t *testing.T) {
	m, tr, pub, _ := newMailer(t, defaultCreds)
	tr.err = errors.New("535 authentication failed")

	_, err := m.Send(context.Background(), Request{GuildID: "g", To: []string{"to@example.com"}})
	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, mail.ClassAuth, de.Class)
	assert.Equal(t, []string{mqcontracts.RoutingKeyMailFailed}, pub.keys)
}

func TestConfigure_StoresSealedSecret(t *testing.T) {
	m, _, _, st := newMailer(t, defaultCreds)

	require.NoError(t, m.Configure(context.Background(), "g", " guild@example.com ", "guild-pass"))

	acc, err := st.Get(context.Background(), "g")
	require.NoError(t, err)
	assert.Equal(t, "guild@example.com", acc.Address)
	scheme, payload := acc.Secret.Scheme()
	assert.Equal(t, secret.SchemeAEAD, scheme)
	assert.NotContains(t, payload, "guild-pass")
	assert.False(t, acc.UpdatedAt.IsZero())
}

func TestStatus(t *testing.T) {
	m, _, _, _ := newMailer(t, defaultCreds)
	ctx := context.Background()

	st, err := m.Status(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, st.Source)
	assert.Equal(t, "default@example.com", st.Address)

	require.NoError(t, m.Configure(ctx, "g", "guild@example.com", "pw"))
	st, err = m.Status(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, SourceGuild, st.Source)
	assert.Equal(t, "guild@example.com", st.Address)
}
