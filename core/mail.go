package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}

	// EmailTemplates holds the parsed `<name>.txt` and `<name>.gohtml` email templates.
	// Each template is parsed together with the matching `_base` layout.
	EmailTemplates struct {
		text            map[string]*texttmpl.Template
		html            map[string]*htmltmpl.Template
		appName         string
		frontendBaseURL string
	}
)

// ParseEmailTemplates parses all templates found in `dir` of `fsys`.
func ParseEmailTemplates(fsys fs.FS, dir string, conf *Config) (*EmailTemplates, error) {
	tmpls := &EmailTemplates{
		text:            make(map[string]*texttmpl.Template),
		html:            make(map[string]*htmltmpl.Template),
		appName:         conf.AppName,
		frontendBaseURL: conf.FrontendBaseURL,
	}
	strict := conf.Debug || conf.TestMode

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading templates dir")
	}
	for _, entry := range entries {
		fname := entry.Name()
		ext := path.Ext(fname)
		if entry.IsDir() || strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		base := path.Join(dir, "_base"+ext)

		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, base, path.Join(dir, fname))
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			tmpls.text[name] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, base, path.Join(dir, fname))
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			tmpls.html[name] = tmpl
		}
	}
	return tmpls, nil
}

func (t *EmailTemplates) contextData(m *EmailMessage) ContextData {
	return ContextData{
		AppName:         t.appName,
		FrontendBaseURL: t.frontendBaseURL,
		Data:            m.TemplateData,
	}
}

// Render fills TextContent and HTMLContent from BodyStr or the message templates.
func (m *EmailMessage) Render(tmpls *EmailTemplates) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" || tmpls == nil {
		return nil
	}

	if tmpl, ok := tmpls.text[m.TemplateName]; ok && m.BodyStr == "" {
		var buff bytes.Buffer
		if err := tmpl.Execute(&buff, tmpls.contextData(m)); err != nil {
			return errors.Wrap(err, "rendering text")
		}
		m.TextContent = buff.String()
	}
	if tmpl, ok := tmpls.html[m.TemplateName]; ok {
		var buff bytes.Buffer
		if err := tmpl.Execute(&buff, tmpls.contextData(m)); err != nil {
			return errors.Wrap(err, "rendering html")
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }
