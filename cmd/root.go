// Package cmd implements the command-line interface for tilawa.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tilawa-cli/tilawa/color"
	"github.com/tilawa-cli/tilawa/constant"
	"github.com/tilawa-cli/tilawa/icon"
	"github.com/tilawa-cli/tilawa/key"
	"github.com/tilawa-cli/tilawa/log"
	"github.com/tilawa-cli/tilawa/style"
	"github.com/tilawa-cli/tilawa/util"
	"github.com/tilawa-cli/tilawa/where"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, square)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Remember the last played recitation so it can be continued")
	lo.Must0(viper.BindPFlag(key.HistorySave, rootCmd.PersistentFlags().Lookup("write-history")))

	rootCmd.Flags().BoolP("continue", "c", false, "Continue the most recently played recitation")

	// Sockets left behind by a crashed mpv are useless once their process is gone.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for tilawa.
var rootCmd = &cobra.Command{
	Use:   constant.Tilawa,
	Short: "A command-line recitation player with mirror fallback",
	Long: style.New().Bold(true).Foreground(color.Green).Render(constant.Tilawa) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A command-line recitation player with mirror fallback"),
	Example: `  tilawa play alafasy 18
  tilawa play sudais last --no-tui
  tilawa --continue`,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if lo.Must(cmd.Flags().GetBool("continue")) {
			CheckDependencies()
			runPlay(cmd.Context(), &playOptions{Continue: true})
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
