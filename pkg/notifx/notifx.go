package notifx

import (
	"context"
)

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// TemplateSender renders a named template and sends it to one recipient.
type TemplateSender interface {
	SendTemplate(ctx context.Context, templateName, to string, data interface{}) error
}

// Client is the main entry point for sending notifications.
type Client struct {
	provider    EmailSender
	templates   *TemplateRegistry
	fromAddress string
}

// NewClient creates a client with the portal templates registered.
func NewClient(provider EmailSender, fromAddress string) *Client {
	return &Client{
		provider:    provider,
		templates:   DefaultTemplates(),
		fromAddress: fromAddress,
	}
}

// SendEmail sends an email through the configured provider.
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "no recipients")
	}
	if msg.Subject == "" {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty subject")
	}
	if msg.From == "" {
		msg.From = c.fromAddress
	}
	return c.provider.SendEmail(ctx, msg)
}

// SendTemplate renders templateName with data and sends it to to.
func (c *Client) SendTemplate(ctx context.Context, templateName, to string, data interface{}) error {
	subject, body, err := c.templates.Render(templateName, data)
	if err != nil {
		return err
	}

	return c.SendEmail(ctx, EmailMessage{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: body,
		Category: templateName,
	})
}

var _ TemplateSender = (*Client)(nil)
