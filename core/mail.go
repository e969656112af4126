package core

import (
	"bytes"
	"embed"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

//go:embed templates/email
var emailTemplateFS embed.FS

var (
	textTemplates *texttmpl.Template
	htmlTemplates *htmltmpl.Template
	tmplInit      sync.Once
	tmplInitErr   error
)

type (
	// EmailMessage is a renderable email. Content is either the plain BodyStr
	// or the named template pair (templates/email/<name>.txt|.html) executed
	// with TemplateData.
	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData wraps template data with app-level context.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently.
		SendMessages(messages ...*EmailMessage)
	}
)

func parseEmailTemplates() error {
	tmplInit.Do(func() {
		textTemplates, tmplInitErr = texttmpl.ParseFS(emailTemplateFS, "templates/email/*.txt")
		if tmplInitErr != nil {
			return
		}
		htmlTemplates, tmplInitErr = htmltmpl.ParseFS(emailTemplateFS, "templates/email/*.html")
	})
	return tmplInitErr
}

// Render resolves the message's text and HTML contents from its template pair.
// Non-templated messages pass through unchanged.
func (m *EmailMessage) Render() error {
	if m.TemplateName == "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if err := parseEmailTemplates(); err != nil {
		return errors.Wrap(err, "parsing email templates")
	}

	var txt bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&txt, m.TemplateName+".txt", m.TemplateData); err != nil {
		return errors.Wrapf(err, "executing template %s.txt", m.TemplateName)
	}
	m.TextContent = txt.String()

	var html bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, m.TemplateName+".html", m.TemplateData); err != nil {
		return errors.Wrapf(err, "executing template %s.html", m.TemplateName)
	}
	m.HTMLContent = html.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != "" || m.BodyStr != ""
}
