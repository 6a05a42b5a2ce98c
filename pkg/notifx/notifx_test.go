package notifx_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/notifx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	sent []notifx.EmailMessage
}

func (c *captureSender) SendEmail(_ context.Context, msg notifx.EmailMessage) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestSendTemplateOnboarding(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "noreply@covidwatch.org")

	err := client.SendTemplate(context.Background(), notifx.TemplateOnboarding, "ada@example.org", notifx.OnboardingData{
		FirstName:         "Ada",
		LastName:          "Lovelace",
		Email:             "ada@example.org",
		TemporaryPassword: "0123456789abcdef",
		SignInURL:         "https://portal.example.org",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "noreply@covidwatch.org", msg.From)
	assert.Equal(t, []string{"ada@example.org"}, msg.To)
	assert.Equal(t, "Welcome to the Covid Watch Portal", msg.Subject)
	assert.Equal(t, notifx.TemplateOnboarding, msg.Category)
	assert.Contains(t, msg.HTMLBody, "Ada Lovelace,")
	assert.Contains(t, msg.HTMLBody, "0123456789abcdef")
	assert.Contains(t, msg.HTMLBody, `href="https://portal.example.org"`)
	assert.Contains(t, msg.HTMLBody, "font-family: Montserrat")
}

func TestSendTemplateRecovery(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "noreply@covidwatch.org")

	err := client.SendTemplate(context.Background(), notifx.TemplateRecovery, "ada@example.org", notifx.RecoveryData{
		Email: "ada@example.org",
		Link:  "https://portal.example.org/signin?link=abc",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Password Recovery Requested", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].HTMLBody, "Recover Account")
}

func TestSendTemplateUnknown(t *testing.T) {
	client := notifx.NewClient(&captureSender{}, "noreply@covidwatch.org")
	err := client.SendTemplate(context.Background(), "nope", "a@b.org", nil)
	assert.True(t, errx.HasCode(err, notifx.ErrTemplateNotFound))
}

func TestSendEmailRequiresRecipient(t *testing.T) {
	client := notifx.NewClient(&captureSender{}, "noreply@covidwatch.org")
	err := client.SendEmail(context.Background(), notifx.EmailMessage{Subject: "x"})
	assert.True(t, errx.IsType(err, errx.TypeInvalidArgument))
}
