//go:build tools
// +build tools

// Package tools pins development tool dependencies so `go run` resolves
// them from go.mod. None of these are runtime dependencies.
package tools

import (
	// mockgen generates the port mocks, see internal/mocks/generate.go.
	_ "go.uber.org/mock/mockgen"
)

// Other development tools (install via `go install`):
//
// Air - Live reload for Go apps
//   Install: go install github.com/air-verse/air@v1.63.0
