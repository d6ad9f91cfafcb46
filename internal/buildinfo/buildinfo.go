// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the release tag for this build.
// Inject via: -X github.com/garyellow/codered-bot-go/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/codered-bot-go/internal/buildinfo.Commit=...
var Commit = ""

// Release returns the identifier reported to Sentry and tracing:
// the version if set, else a short commit, else "dev".
func Release() string {
	switch {
	case Version != "":
		return Version
	case len(Commit) >= 7:
		return Commit[:7]
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}
