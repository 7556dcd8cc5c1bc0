// Package constant defines immutable application-level identifiers and build metadata.
package constant

const (
	// Tilawa is the canonical application identifier used for filesystem paths and CLI branding.
	Tilawa = "tilawa"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is sent with every probe request so mirrors that reject unknown clients still answer.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Build metadata, overridden at link time with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
