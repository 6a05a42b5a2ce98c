package notifx

import (
	"bytes"
	"html/template"
	"sync"
)

type namedTemplate struct {
	subject string
	body    *template.Template
}

// TemplateRegistry stores named Go html/templates with a fixed subject.
type TemplateRegistry struct {
	templates map[string]namedTemplate
	mu        sync.RWMutex
}

// NewTemplateRegistry creates an empty template registry.
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]namedTemplate),
	}
}

// Register parses and stores a template by name.
func (r *TemplateRegistry) Register(name, subject, tmplString string) error {
	t, err := template.New(name).Parse(tmplString)
	if err != nil {
		return notifxErrors.NewWithCause(ErrTemplateParse, err).WithDetail("template", name)
	}

	r.mu.Lock()
	r.templates[name] = namedTemplate{subject: subject, body: t}
	r.mu.Unlock()

	return nil
}

// Render executes a named template and returns its subject and body.
func (r *TemplateRegistry) Render(name string, data interface{}) (string, string, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return "", "", notifxErrors.New(ErrTemplateNotFound).WithDetail("template", name)
	}

	var buf bytes.Buffer
	if err := t.body.Execute(&buf, data); err != nil {
		return "", "", notifxErrors.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
	}

	return t.subject, buf.String(), nil
}

const paragraphStyle = `font-family: Montserrat, Arial, Helvetica, sans-serif;font-size:18px;color: #585858;`

const onboardingHTML = `<!DOCTYPE html>
<p style="{{.Style}}">{{.FirstName}} {{.LastName}},</p>
<p style="{{.Style}}">You are receiving this email because you were added as a new member of Covid Watch by the Account Administrator.</p>
<p style="{{.Style}}"><b>Your user name:</b> {{.Email}}<br /><b>Your temporary password:</b> {{.TemporaryPassword}}</p>
<p style="{{.Style}}">Please click the following link or copy and paste it into your browser to sign in to your new account:</p>
<p style="{{.Style}}"><a href="{{.SignInURL}}">Sign In</a></p>
<p style="{{.Style}}">If you received this message in error, you can safely ignore it.</p>
<p style="{{.Style}}">If you have questions, please email support@covidwatch.org.</p>
<p style="{{.Style}}">Thank you,<br />Covid Watch Team</p>`

const recoveryHTML = `<!DOCTYPE html>
<p style="{{.Style}}">You are receiving this message because you requested a password reset for the Covid Watch Portal account associated with this email address.</p>
<p style="{{.Style}}">Please click the following link or copy and paste it into your browser to reset your account password:</p>
<p style="{{.Style}}"><a href="{{.Link}}">Recover Account</a></p>
<p style="{{.Style}}">If you received this message in error, you can safely ignore it.</p>
<p style="{{.Style}}">Thank you,<br />Covid Watch Team</p>`

// Style is available to templates as {{.Style}}.
func (OnboardingData) Style() template.CSS { return paragraphStyle }
func (RecoveryData) Style() template.CSS   { return paragraphStyle }

// DefaultTemplates returns a registry holding the onboarding and recovery
// templates.
func DefaultTemplates() *TemplateRegistry {
	r := NewTemplateRegistry()
	// the built-in templates are constants and always parse
	_ = r.Register(TemplateOnboarding, "Welcome to the Covid Watch Portal", onboardingHTML)
	_ = r.Register(TemplateRecovery, "Password Recovery Requested", recoveryHTML)
	return r
}
