package cmd

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tilawa-cli/tilawa/candidate"
	"github.com/tilawa-cli/tilawa/config"
	"github.com/tilawa-cli/tilawa/filesystem"
	"github.com/tilawa-cli/tilawa/inline"
	"github.com/tilawa-cli/tilawa/key"
	"github.com/tilawa-cli/tilawa/probe"
	"github.com/tilawa-cli/tilawa/util"
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringP("surahs", "s", "first", "Criteria for selecting the surahs to resolve")
	resolveCmd.Flags().BoolP("json", "j", false, "Format the command output as a JSON object")
	resolveCmd.Flags().BoolP("candidates", "C", false, "List the expanded candidate mirrors without probing them")
	resolveCmd.Flags().StringP("output", "o", "", "Specify a file path to write the command output")

	resolveCmd.Flags().StringP("prober", "p", probe.KindHTTP, "How candidate mirrors are checked (http, mpv)")
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("prober", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return probe.Kinds, cobra.ShellCompDirectiveNoFileComp
	}))
	resolveCmd.Flags().IntP("timeout", "t", config.DefaultProbeTimeoutSeconds, "Seconds a single mirror may take to become ready")
	resolveCmd.Flags().Bool("cross-family", false, "Also try mirrors that belong to a different reciter")
}

// resolveCmd runs the mirror cascade without playing anything.
var resolveCmd = &cobra.Command{
	Use:   "resolve [reciter]",
	Short: "Find a working mirror for each selected surah without playing it",
	Long: `Run the mirror cascade for one reciter and print the first working locator of every
selected surah. With --json every attempt is reported together with its outcome.

Surah selectors:
  all - every surah
  first - Al-Fatiha
  last - An-Nas
  [number] - select surah by number
  [from]-[to] - select surahs by range
  [a],[b],... - any combination of the above`,
	Example: `  tilawa resolve alafasy -s 1-3
  tilawa resolve sudais -s all --candidates
  tilawa resolve husary -s 18 --json --prober mpv`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionReciters,
	PreRun: func(cmd *cobra.Command, args []string) {
		// Flags are bound here rather than in init so they do not clash with play's.
		lo.Must0(viper.BindPFlag(key.ResolverProber, cmd.Flags().Lookup("prober")))
		lo.Must0(viper.BindPFlag(key.ResolverProbeTimeout, cmd.Flags().Lookup("timeout")))
		lo.Must0(viper.BindPFlag(key.ResolverCrossFamily, cmd.Flags().Lookup("cross-family")))
	},
	Run: func(cmd *cobra.Command, args []string) {
		p, err := pickProvider(args[0])
		handleErr(err)

		surahs, err := inline.ParseSurahs(lo.Must(cmd.Flags().GetString("surahs")))
		handleErr(err)

		candidatesOnly := lo.Must(cmd.Flags().GetBool("candidates"))
		prober, err := probe.New(viper.GetString(key.ResolverProber), viper.GetString(key.PlayerBinary))
		handleErr(err)
		if !candidatesOnly && viper.GetString(key.ResolverProber) == probe.KindMPV {
			CheckDependencies()
		}

		var writer io.Writer = os.Stdout
		if output := lo.Must(cmd.Flags().GetString("output")); output != "" {
			f, err := filesystem.API().Create(output)
			handleErr(err)
			defer util.Ignore(f.Close)
			writer = f
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		options := &inline.Options{
			Out:            writer,
			Provider:       p,
			Surahs:         surahs,
			Json:           lo.Must(cmd.Flags().GetBool("json")),
			CandidatesOnly: candidatesOnly,
			Prober:         prober,
			Timeout:        config.ProbeTimeout(),
			Candidates: candidate.Options{
				AllowCrossFamily: viper.GetBool(key.ResolverCrossFamily),
			},
		}

		handleErr(inline.Run(ctx, options))
	},
}

func init() {
	resolveCmd.AddCommand(resolveSchemaCmd)
}

// resolveSchemaCmd prints the JSON schema of resolve --json.
var resolveSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate the JSON schema for the structured resolve output",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "attempt", "resolution", "output", "track", "candidate":
				return filepath.Base(t.PkgPath()) + "." + name
			}

			return name
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(reflector.Reflect(&inline.Output{})))
	},
}
