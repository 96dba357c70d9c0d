package migrations

import "embed"

// FS holds the directory schema, applied through the iofs source driver.
//
//go:embed *.sql
var FS embed.FS

const Version = 1
