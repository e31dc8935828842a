package utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"petopia-api/config"
	"petopia-api/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSendFeedbackThanksLowRating(t *testing.T) {
	mailer := &recordingMailer{}
	es := NewEmailService(mailer, "admin@petopia.care", quietLogger())

	fb := &models.Feedback{Name: "Bob", Email: "bob@x.com", Feedback: "slow <b>delivery</b>", Rating: 2}
	require.NoError(t, es.SendFeedbackThanks(context.Background(), fb))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "bob@x.com", msg.To)
	assert.Contains(t, msg.HTML, "our team will contact you")
	assert.Contains(t, msg.HTML, "slow &lt;b&gt;delivery&lt;/b&gt;")
}

func TestSendFeedbackThanksHighRating(t *testing.T) {
	mailer := &recordingMailer{}
	es := NewEmailService(mailer, "admin@petopia.care", quietLogger())

	fb := &models.Feedback{Name: "Bob", Email: "bob@x.com", Feedback: "great", Rating: 5}
	require.NoError(t, es.SendFeedbackThanks(context.Background(), fb))

	require.Len(t, mailer.sent, 1)
	assert.NotContains(t, mailer.sent[0].HTML, "unsatisfactory")
	assert.Contains(t, mailer.sent[0].Text, "Rating: 5 / 5")
}

func TestSendFeedbackToAdminRepliesToSubmitter(t *testing.T) {
	mailer := &recordingMailer{}
	es := NewEmailService(mailer, "admin@petopia.care", quietLogger())

	fb := &models.Feedback{Name: "Bob", Email: "bob@x.com", Feedback: "ok", Rating: 3}
	require.NoError(t, es.SendFeedbackToAdmin(context.Background(), fb))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "admin@petopia.care", mailer.sent[0].To)
	assert.Equal(t, "bob@x.com", mailer.sent[0].ReplyTo)
	assert.Equal(t, "New Feedback Received", mailer.sent[0].Subject)
}

func TestSendEmailWrapsProviderError(t *testing.T) {
	cause := errors.New("provider down")
	es := NewEmailService(&recordingMailer{err: cause}, "", quietLogger())

	err := es.SendEmail(context.Background(), "test", Message{To: "a@x.com"})
	assert.ErrorIs(t, err, cause)
}

func TestNewMailerSelectsProvider(t *testing.T) {
	log := quietLogger()
	cases := map[string]interface{}{
		"postmark": &PostmarkMailer{},
		"sendgrid": &SendGridMailer{},
		"resend":   &ResendMailer{},
		"log":      &LogMailer{},
	}
	for provider, want := range cases {
		m, err := NewMailer(config.EmailConfig{Provider: provider, APIToken: "token", Sender: "s@x.com"}, log)
		require.NoError(t, err, provider)
		assert.IsType(t, want, m, provider)
	}

	_, err := NewMailer(config.EmailConfig{Provider: "pigeon"}, log)
	assert.Error(t, err)
}

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevoker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Hour))
	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = r.IsRevoked(ctx, "jti-2")
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = r.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
}

func TestWriteUserOrdersWorkbook(t *testing.T) {
	id := primitive.NewObjectID()
	var buf bytes.Buffer
	err := WriteUserOrdersWorkbook(&buf, []models.UserOrderCount{
		{UserID: id, Username: "alice", Email: "a@x.com", OrderCount: 3},
	})
	require.NoError(t, err)

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	rows := file.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "Username", rows[0].Cells[1].Value)
	assert.Equal(t, id.Hex(), rows[1].Cells[0].Value)
	assert.Equal(t, "alice", rows[1].Cells[1].Value)
	assert.Equal(t, "3", rows[1].Cells[3].Value)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, NewLogger("chatty", "json").GetLevel())
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug", "text").GetLevel())
}
