package main

import (
	"runtime/debug"

	"github.com/keval/invo/cmd"
)

// Version may be set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

// buildVersion prefers an ldflags-injected version, then the module version
// recorded by `go install module@vX.Y.Z`.
func buildVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return Version
}

func main() {
	cmd.SetVersion(buildVersion())
	cmd.Execute()
}
