// Package version holds build metadata stamped in via -ldflags.
package version

var (
	// Version is the release tag of the session daemon.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
)

// String is the one-line form used in logs and the -version flag.
func String() string {
	return Version + " (" + GitSHA + ")"
}
