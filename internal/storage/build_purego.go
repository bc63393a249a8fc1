//go:build !cgo || purego
// +build !cgo purego

package storage

// Compiled without CGO or with the purego tag. Uses the pure Go SQLite
// implementation: no C compiler required, cross-compiles anywhere.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
