// Package db embeds the goose migrations for every supported driver.
package db

import "embed"

// Migrations holds one directory of goose SQL files per database driver.
//
//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var Migrations embed.FS
