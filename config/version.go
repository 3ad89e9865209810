package config

import "fmt"

// Set at build time with -ldflags "-X github.com/getzep/ducks/config.Version=...".
var (
	Version    = "dev"
	CommitHash = "n/a"
	BuildTime  = "n/a"
)

// VersionString is reported by --version and the X-Ducks-Version response header.
var VersionString = fmt.Sprintf("%s-%s (%s)", Version, CommitHash, BuildTime)
