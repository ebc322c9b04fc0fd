// Package migrations embeds the state database schema migrations so they are
// compiled into the binary.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
