package main

import (
	"os"

	"github.com/sukyun02/2026-autonomous-driving/cmd/navctl/commands"
	"github.com/sukyun02/2026-autonomous-driving/internal/version"
)

func main() {
	commands.SetVersionInfo(version.Version, version.GitSHA, version.BuildTime)

	// errors are printed by the commands themselves
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
