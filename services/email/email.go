// Package emailsvc provides the core.EmailService implementations.
package emailsvc

import "github.com/trezcool/pta/core"

// New returns the console service in debug mode, SendGrid otherwise.
func New(tmpls *core.EmailTemplates, logger core.Logger, conf *core.Config) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return NewConsoleService(tmpls, logger, conf)
	}
	return NewSendgridService(tmpls, logger, conf)
}
