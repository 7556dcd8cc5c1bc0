// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Source Resolution - these keys tune how candidate mirrors are probed before playback.
const (
	ResolverProbeTimeout = "resolver.probe_timeout"
	ResolverProber       = "resolver.prober"
	ResolverCrossFamily  = "resolver.cross_family"
)

// Media Playback - these keys configure the shared mpv playback resource.
const (
	PlayerBinary = "player.binary"
	PlayerVolume = "player.volume"
)

// History Tracking - these keys configure persistence of the last played recitation.
const (
	HistorySave = "history.save"
)

// Terminal User Interface (TUI) - these keys define the interactive observer's behaviour.
const (
	TUIExpanded = "tui.expanded"
	TUISeekStep = "tui.seek_step"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags govern the non-TUI application behavior.
const (
	CliColored = "cli.colored"
)
