package notifxses

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/portal/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSendEmailBuildsInput(t *testing.T) {
	api := &fakeSES{}
	p := NewSESProvider(api, "noreply@covidwatch.org")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"a@b.org"},
		Subject:  "Password Recovery Requested",
		HTMLBody: "<p>hi</p>",
	})
	require.NoError(t, err)

	require.NotNil(t, api.input)
	assert.Equal(t, "noreply@covidwatch.org", aws.ToString(api.input.Source))
	assert.Equal(t, []string{"a@b.org"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "<p>hi</p>", aws.ToString(api.input.Message.Body.Html.Data))
	assert.Nil(t, api.input.Message.Body.Text)
}

func TestSendEmailWrapsProviderError(t *testing.T) {
	p := NewSESProvider(&fakeSES{err: errors.New("throttled")}, "noreply@covidwatch.org")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@b.org"}, Subject: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestSendEmailTagsCategory(t *testing.T) {
	api := &fakeSES{}
	p := NewSESProvider(api, "noreply@covidwatch.org").WithConfigurationSet("portal")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"a@b.org"},
		Subject:  "Welcome",
		TextBody: "hi",
		Category: notifx.TemplateOnboarding,
	})
	require.NoError(t, err)

	require.Len(t, api.input.Tags, 1)
	assert.Equal(t, "category", aws.ToString(api.input.Tags[0].Name))
	assert.Equal(t, "onboarding", aws.ToString(api.input.Tags[0].Value))
	assert.Equal(t, "portal", aws.ToString(api.input.ConfigurationSetName))
	assert.Equal(t, "hi", aws.ToString(api.input.Message.Body.Text.Data))
}
