// Package migrations holds the ordered schema migrations and the Runner
// that inspects and applies them through goose.
package migrations

import "embed"

//go:embed *.sql
var Embed embed.FS
