package account

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

//go:embed templates/emails
var templatesFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

func emailTemplatesFS() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates/emails")
	if err != nil {
		panic("email templates missing from binary: " + err.Error())
	}
	return sub
}
