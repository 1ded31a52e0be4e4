// Package assets embeds the files the apps need at runtime.
package assets

import "embed"

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
	CommonPasswordsGz = "common-passwords.txt.gz"
)

//go:embed migrations/*.sql templates/email/* common-passwords.txt.gz
var FS embed.FS
