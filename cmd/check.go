package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
	"github.com/tilawa-cli/tilawa/constant"
	"github.com/tilawa-cli/tilawa/icon"
	"github.com/tilawa-cli/tilawa/key"
	"github.com/tilawa-cli/tilawa/player"
	"github.com/tilawa-cli/tilawa/style"
)

// CheckDependencies exits with an install hint when the configured mpv binary
// cannot be found.
func CheckDependencies() {
	binary := viper.GetString(key.PlayerBinary)
	if player.NewMPV(binary).Available() {
		return
	}

	printMissingDependencyError(binary)
	os.Exit(1)
}

func printMissingDependencyError(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The player '%s' was not found in your PATH.", dep))

	suggestion := fmt.Sprintf("\n\nPoint %s at an existing binary with:\n  %s",
		constant.Tilawa,
		style.New().Foreground(style.AccentColor).Bold(true).Render(fmt.Sprintf("%s config set %s /path/to/mpv", constant.Tilawa, key.PlayerBinary)),
	)
	if hint, ok := constant.MPVInstallHints[runtime.GOOS]; ok {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(hint)) + suggestion
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
