// Package main is the single-binary entrypoint for FocusForge.
package main

import "github.com/focusforge/focusforge/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
