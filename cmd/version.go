package cmd

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tilawa-cli/tilawa/color"
	"github.com/tilawa-cli/tilawa/constant"
	"github.com/tilawa-cli/tilawa/key"
	"github.com/tilawa-cli/tilawa/style"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Display only the version string without metadata")
}

var versionTemplate = lo.Must(template.New("version").Funcs(map[string]any{
	"faint":   style.Faint,
	"bold":    style.Bold,
	"magenta": style.Fg(color.Purple),
	"green":   style.Fg(color.Green),
	"red":     style.Fg(color.Red),
}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}         {{ bold .Version }}
  {{ faint "Git Commit" }}      {{ bold .Revision }}
  {{ faint "Build Date" }}      {{ bold .BuiltAt }}
  {{ faint "Built By" }}        {{ bold .BuiltBy }}
  {{ faint "Platform" }}        {{ bold .OS }}/{{ bold .Arch }}
  {{ faint "Player" }}          {{ if .PlayerPath }}{{ green .PlayerPath }}{{ else }}{{ red (print .Player " not found") }}{{ end }}
`))

// versionCmd displays application version and build metadata.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display exhaustive version and build metadata",
	Long:  "Display the current application version, build revision, platform architecture and the mpv binary in use.",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		player := viper.GetString(key.PlayerBinary)
		playerPath, _ := exec.LookPath(player)

		versionInfo := struct {
			Version    string
			OS         string
			Arch       string
			BuiltAt    string
			BuiltBy    string
			Revision   string
			App        string
			Player     string
			PlayerPath string
		}{
			Version:    constant.Version,
			App:        constant.Tilawa,
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			BuiltAt:    strings.TrimSpace(constant.BuiltAt),
			BuiltBy:    constant.BuiltBy,
			Revision:   constant.Revision,
			Player:     player,
			PlayerPath: playerPath,
		}

		handleErr(versionTemplate.Execute(cmd.OutOrStdout(), versionInfo))
	},
}
