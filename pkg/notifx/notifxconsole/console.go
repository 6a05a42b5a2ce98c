package notifxconsole

import (
	"context"
	"strings"

	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/Abraxas-365/portal/pkg/notifx"
)

// ConsoleProvider logs emails instead of sending them. Used outside
// production so onboarding and recovery flows can be followed locally.
type ConsoleProvider struct{}

// NewConsoleProvider creates a new console email provider.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendEmail logs the envelope at INFO and the body at DEBUG. Bodies carry
// temporary passwords and sign-in links, so they stay out of INFO output.
func (p *ConsoleProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage) error {
	log := logx.WithContext(ctx).WithFields(logx.Fields{
		"from":     msg.From,
		"to":       strings.Join(msg.To, ", "),
		"subject":  msg.Subject,
		"category": msg.Category,
	})
	log.Info("notifx/console: email captured")

	if msg.HTMLBody != "" {
		log.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}
	if msg.TextBody != "" {
		log.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}

	return nil
}

var _ notifx.EmailSender = (*ConsoleProvider)(nil)
