package cmd

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/tilawa-cli/tilawa/history"
	"github.com/tilawa-cli/tilawa/icon"
	"github.com/tilawa-cli/tilawa/util"
	"github.com/tilawa-cli/tilawa/where"
)

// clearTarget is something tilawa stored that can be thrown away.
type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	clear    func() error
}

// removePath deletes path, treating an already missing path as cleared.
func removePath(path func() string) func() error {
	return func() error {
		if err := util.Delete(path()); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
}

var clearTargets = []clearTarget{
	{"play history", "history", mo.Some("s"), history.Clear},
	{"cache directory", "cache", mo.Some("c"), removePath(where.Cache)},
	{"logs", "logs", mo.Some("l"), removePath(where.Logs)},
	{"mpv sockets", "temp", mo.None[string](), removePath(where.Temp)},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if short, ok := target.argShort.Get(); ok {
			clearCmd.Flags().BoolP(target.argLong, short, false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

// clearCmd removes history, caches and leftovers of crashed players.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear play history, caches and stale mpv sockets",
	Run: func(cmd *cobra.Command, args []string) {
		selected := lo.Filter(clearTargets, func(t clearTarget, _ int) bool {
			return lo.Must(cmd.Flags().GetBool(t.argLong))
		})

		if len(selected) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, target := range selected {
			e := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := target.clear()
			e()
			handleErr(err)

			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), lo.Capitalize(target.name))
		}
	},
}
