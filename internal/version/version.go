// Package version holds build-time metadata injected via -ldflags.
package version

var (
	// Version is the release version, set at build time.
	Version = "dev"
	// Commit is the short git hash of the build.
	Commit = "unknown"
	// BuildDate is when the binary was built.
	BuildDate = "unknown"
)
