package notifx

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From     string   `json:"from"`
	To       []string `json:"to"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body,omitempty"`
	HTMLBody string   `json:"html_body,omitempty"`
	// Category tags the message for delivery metrics, usually the template name
	Category string `json:"category,omitempty"`
}

// Template names known to the portal.
const (
	TemplateOnboarding = "onboarding"
	TemplateRecovery   = "recovery"
)

// OnboardingData fills the onboarding template.
type OnboardingData struct {
	FirstName         string
	LastName          string
	Email             string
	TemporaryPassword string
	SignInURL         string
}

// RecoveryData fills the recovery template.
type RecoveryData struct {
	Email string
	Link  string
}
