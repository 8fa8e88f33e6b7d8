package version

const (
	// SemVer is the semantic version of the header sync node.
	SemVer = "0.1.0"

	// WireVersion is the envelope version tag this build speaks.
	WireVersion uint16 = 0
)

// GitCommit is the current HEAD set using ldflags.
var GitCommit string

// Version is the full version string, including the commit when known.
var Version = SemVer

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}
