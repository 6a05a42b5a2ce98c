package notifxses

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// API is the subset of the SES client the provider calls.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESProvider implements notifx.EmailSender using AWS SES.
type SESProvider struct {
	client           API
	fromAddress      string
	configurationSet string
}

// NewSESProvider creates a new SES email provider.
func NewSESProvider(client API, fromAddress string) *SESProvider {
	return &SESProvider{
		client:      client,
		fromAddress: fromAddress,
	}
}

// WithConfigurationSet routes sends through an SES configuration set so
// bounces and deliveries are published per category tag.
func (p *SESProvider) WithConfigurationSet(name string) *SESProvider {
	p.configurationSet = name
	return p
}

// SendEmail sends a single email via SES.
func (p *SESProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage) error {
	input := p.buildInput(msg)

	if _, err := p.client.SendEmail(ctx, input); err != nil {
		return sesErrors.NewWithCause(ErrSendFailed, err).
			WithDetail("to", msg.To).
			WithDetail("category", msg.Category)
	}
	return nil
}

func (p *SESProvider) buildInput(msg notifx.EmailMessage) *ses.SendEmailInput {
	from := msg.From
	if from == "" {
		from = p.fromAddress
	}

	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = &types.Content{
			Data:    aws.String(msg.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{
			Data:    aws.String(msg.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: msg.To},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: body,
		},
	}

	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if msg.Category != "" {
		input.Tags = []types.MessageTag{{
			Name:  aws.String("category"),
			Value: aws.String(msg.Category),
		}}
	}
	if p.configurationSet != "" {
		input.ConfigurationSetName = aws.String(p.configurationSet)
	}
	return input
}

var _ notifx.EmailSender = (*SESProvider)(nil)
