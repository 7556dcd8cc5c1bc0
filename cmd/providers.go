package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tilawa-cli/tilawa/color"
	"github.com/tilawa-cli/tilawa/filesystem"
	"github.com/tilawa-cli/tilawa/icon"
	"github.com/tilawa-cli/tilawa/provider"
	"github.com/tilawa-cli/tilawa/style"
	"github.com/tilawa-cli/tilawa/track"
	"github.com/tilawa-cli/tilawa/where"
)

const customProviderExtension = ".toml"

func init() {
	rootCmd.AddCommand(providersCmd)
}

// providersCmd provides a parent command for managing reciters.
var providersCmd = &cobra.Command{
	Use:     "providers",
	Aliases: []string{"reciters", "sources"},
	Short:   "Manage built-in and custom reciters",
}

func init() {
	providersCmd.AddCommand(providersListCmd)

	providersListCmd.Flags().BoolP("raw", "r", false, "Suppress headers and print only reciter ids")
	providersListCmd.Flags().BoolP("custom", "c", false, "Display only user-defined reciters")
	providersListCmd.Flags().BoolP("builtin", "b", false, "Display only built-in reciters")
	providersListCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON array")

	providersListCmd.MarkFlagsMutuallyExclusive("custom", "builtin")
	providersListCmd.SetOut(os.Stdout)
}

// providersListCmd displays every registered reciter.
var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Display all registered reciters",
	Run: func(cmd *cobra.Command, args []string) {
		customs, err := provider.Customs()
		handleErr(err)

		var (
			raw         = lo.Must(cmd.Flags().GetBool("raw"))
			headerStyle = style.New().Foreground(color.HiBlue).Bold(true).Render
		)

		if lo.Must(cmd.Flags().GetBool("json")) {
			var list []*provider.Provider
			switch {
			case lo.Must(cmd.Flags().GetBool("builtin")):
				list = provider.Builtins()
			case lo.Must(cmd.Flags().GetBool("custom")):
				list = customs
			default:
				list = provider.All()
			}
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(lo.Ternary(list == nil, []*provider.Provider{}, list)))
			return
		}

		printList := func(header string, providers []*provider.Provider) {
			if !raw {
				cmd.Println(headerStyle(header))
			}

			for _, p := range providers {
				if raw {
					cmd.Println(p.ID)
					continue
				}
				cmd.Printf("%s %s\n", style.Fg(color.Yellow)(p.ID), style.Faint(p.Name))
			}
		}

		switch {
		case lo.Must(cmd.Flags().GetBool("builtin")):
			printList("Builtin:", provider.Builtins())
		case lo.Must(cmd.Flags().GetBool("custom")):
			printList("Custom:", customs)
		default:
			printList("Builtin:", provider.Builtins())
			if !raw {
				cmd.Println()
			}
			printList("Custom:", customs)
		}
	},
}

func init() {
	providersCmd.AddCommand(providersShowCmd)
	providersShowCmd.SetOut(os.Stdout)
}

// providersShowCmd prints a reciter definition in the custom provider format.
var providersShowCmd = &cobra.Command{
	Use:               "show [reciter]",
	Short:             "Print a reciter definition, including every mirror template",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionReciters,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := pickProvider(args[0])
		handleErr(err)

		data, err := provider.Encode(p)
		handleErr(err)

		cmd.Print(string(data))
	},
}

func init() {
	providersCmd.AddCommand(providersGenCmd)

	providersGenCmd.Flags().StringP("id", "i", "", "The short handle of the new reciter")
	providersGenCmd.Flags().StringP("name", "n", "", "The display name of the new reciter")
	providersGenCmd.Flags().StringP("family", "f", "", "The reciter's directory on the shared mirrors")
	providersGenCmd.Flags().StringP("url", "u", "", "A locator template such as https://host/dir/{id3}.mp3")

	lo.Must0(providersGenCmd.MarkFlagRequired("id"))
	lo.Must0(providersGenCmd.MarkFlagRequired("url"))
}

// providersGenCmd scaffolds a custom reciter definition.
var providersGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Scaffold a custom reciter definition in the sources directory",
	Long: `Write a custom reciter definition to the sources directory.

Locator templates understand these placeholders:
  {id}     the surah number
  {id3}    the surah number padded to three digits
  {family} the reciter's directory on shared mirrors`,
	Run: func(cmd *cobra.Command, args []string) {
		id := strings.ToLower(lo.Must(cmd.Flags().GetString("id")))
		p := &provider.Provider{
			ID:     id,
			Name:   lo.Must(cmd.Flags().GetString("name")),
			Family: lo.Must(cmd.Flags().GetString("family")),
			Templates: []track.Template{{
				Pattern:  lo.Must(cmd.Flags().GetString("url")),
				Provider: id,
			}},
		}
		if p.Name == "" {
			p.Name = id
		}
		p.NoMirrors = p.Family == ""

		data, err := provider.Encode(p)
		handleErr(err)

		target := filepath.Join(where.Sources(), id+customProviderExtension)
		handleErr(filesystem.API().WriteFile(target, data, os.ModePerm))

		fmt.Println(target)
	},
}

func init() {
	providersCmd.AddCommand(providersRemoveCmd)

	providersRemoveCmd.Flags().StringArrayP("id", "i", []string{}, "Specify the id of the custom reciter(s) to remove")
	lo.Must0(providersRemoveCmd.RegisterFlagCompletionFunc("id", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		files, err := filesystem.API().ReadDir(where.Sources())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		return lo.FilterMap(files, func(item os.FileInfo, _ int) (string, bool) {
			name := item.Name()
			if !strings.HasSuffix(name, customProviderExtension) {
				return "", false
			}

			return strings.TrimSuffix(name, customProviderExtension), true
		}), cobra.ShellCompDirectiveNoFileComp
	}))
}

// providersRemoveCmd deletes custom reciter definitions.
var providersRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Permanently remove custom reciter definitions",
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range lo.Must(cmd.Flags().GetStringArray("id")) {
			path := filepath.Join(where.Sources(), id+customProviderExtension)
			handleErr(filesystem.API().Remove(path))
			fmt.Printf("%s successfully removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(id))
		}
	},
}
