// Package version carries build metadata stamped via -ldflags, e.g.
//
//	go build -ldflags "-X github.com/banshee-data/lapdelta.report/internal/version.Version=v0.3.0"
package version

var (
	// Version is the release version of the lapdelta binary.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
