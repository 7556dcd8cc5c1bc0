package constant

// Platform identifiers for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// MPVInstallHints maps a platform to the command most likely to install mpv on it.
var MPVInstallHints = map[string]string{
	Darwin:  "brew install mpv",
	Linux:   "sudo apt install mpv",
	Windows: "scoop install mpv",
}
