// Package migrations contains the embedded SQL schema for the SQLite backend.
package migrations

import "embed"

// Files exposes the compiled-in migration SQL files.
//
//go:embed *.sql
var Files embed.FS
