//go:build cgo && !purego
// +build cgo,!purego

package storage

// Compiled for CGO builds. Uses the C SQLite driver, which is faster for
// large snapshots.
//
// Build command:
//   CGO_ENABLED=1 go build ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
