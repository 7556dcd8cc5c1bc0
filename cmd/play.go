package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tilawa-cli/tilawa/candidate"
	"github.com/tilawa-cli/tilawa/color"
	"github.com/tilawa-cli/tilawa/config"
	"github.com/tilawa-cli/tilawa/history"
	"github.com/tilawa-cli/tilawa/inline"
	"github.com/tilawa-cli/tilawa/key"
	"github.com/tilawa-cli/tilawa/log"
	"github.com/tilawa-cli/tilawa/playback"
	"github.com/tilawa-cli/tilawa/player"
	"github.com/tilawa-cli/tilawa/probe"
	"github.com/tilawa-cli/tilawa/provider"
	"github.com/tilawa-cli/tilawa/style"
	"github.com/tilawa-cli/tilawa/tui"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolP("continue", "c", false, "Continue the most recently played recitation")
	playCmd.Flags().BoolP("no-tui", "n", false, "Print one line per state change instead of the player screen")

	playCmd.Flags().BoolP("expanded", "e", false, "Start the player screen in the expanded layout")
	lo.Must0(viper.BindPFlag(key.TUIExpanded, playCmd.Flags().Lookup("expanded")))

	playCmd.Flags().StringP("prober", "p", probe.KindHTTP, "How candidate mirrors are checked before playback (http, mpv)")
	lo.Must0(playCmd.RegisterFlagCompletionFunc("prober", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return probe.Kinds, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.ResolverProber, playCmd.Flags().Lookup("prober")))

	playCmd.Flags().IntP("timeout", "t", config.DefaultProbeTimeoutSeconds, "Seconds a single mirror may take to become ready")
	lo.Must0(viper.BindPFlag(key.ResolverProbeTimeout, playCmd.Flags().Lookup("timeout")))

	playCmd.Flags().Bool("cross-family", false, "Also try mirrors that belong to a different reciter")
	lo.Must0(viper.BindPFlag(key.ResolverCrossFamily, playCmd.Flags().Lookup("cross-family")))

	playCmd.Flags().Int("volume", 100, "Initial volume, from 0 to 100")
	lo.Must0(viper.BindPFlag(key.PlayerVolume, playCmd.Flags().Lookup("volume")))
}

var playCmd = &cobra.Command{
	Use:   "play [reciter] [surah]",
	Short: "Play a surah, falling back across mirrors until one works",
	Long: `Play a surah by the given reciter.

The reciter is matched against provider ids and names, so "sudais" and "Sudais" both work.
When several reciters match, you are asked to choose.

Surah selectors:
  first - Al-Fatiha
  last - An-Nas
  [number] - select surah by number (1-114)`,
	Example: `  tilawa play alafasy 18
  tilawa play husary first --no-tui
  tilawa play --continue`,
	Args: func(cmd *cobra.Command, args []string) error {
		if lo.Must(cmd.Flags().GetBool("continue")) {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	ValidArgsFunction: completionReciters,
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		options := &playOptions{
			Continue: lo.Must(cmd.Flags().GetBool("continue")),
			NoTUI:    lo.Must(cmd.Flags().GetBool("no-tui")),
		}
		if len(args) == 2 {
			options.Reciter, options.Surah = args[0], args[1]
		}

		runPlay(cmd.Context(), options)
	},
}

type playOptions struct {
	Reciter  string
	Surah    string
	Continue bool
	NoTUI    bool
}

// playTarget is what will be played and where to start.
type playTarget struct {
	provider *provider.Provider
	surah    int
	resume   float64
}

func runPlay(ctx context.Context, options *playOptions) {
	final, err := play(ctx, options)
	handleErr(err)

	if final.State == playback.Failed {
		if !options.NoTUI {
			handleErr(errors.New(final.Message()))
		}
		os.Exit(1)
	}
}

// play runs one session until the observer finishes and returns the last snapshot seen.
func play(ctx context.Context, options *playOptions) (playback.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	target, err := resolveTarget(options)
	if err != nil {
		return playback.Snapshot{}, err
	}

	req, err := target.provider.Request(target.surah)
	if err != nil {
		return playback.Snapshot{}, err
	}

	binary := viper.GetString(key.PlayerBinary)
	prober, err := probe.New(viper.GetString(key.ResolverProber), binary)
	if err != nil {
		return playback.Snapshot{}, err
	}

	coordinator := playback.New(player.NewMPV(binary), prober, playback.Options{
		ProbeTimeout: config.ProbeTimeout(),
		Volume:       config.Volume(),
		Candidates: candidate.Options{
			AllowCrossFamily: viper.GetBool(key.ResolverCrossFamily),
		},
	})
	defer func() {
		if err := coordinator.Close(); err != nil {
			log.Warn(err)
		}
	}()

	// Subscribed before the play starts so the line observer sees Resolving.
	var updates <-chan playback.Snapshot
	if options.NoTUI {
		var cancel func()
		updates, cancel = coordinator.Subscribe()
		defer cancel()
	}

	go func() {
		if _, err := coordinator.PlayRequest(ctx, req); err != nil {
			log.Infof("play %s: %s", req.Title, err)
			return
		}
		if target.resume > 0 {
			log.Infof("continuing %s at %.0fs", req.Title, target.resume)
			_ = coordinator.Seek(target.resume)
		}
	}()

	var final playback.Snapshot
	if options.NoTUI {
		final = tui.Follow(ctx, os.Stdout, updates)
	} else {
		err = tui.Run(ctx, coordinator, &tui.Options{
			Expanded: viper.GetBool(key.TUIExpanded),
			SeekStep: viper.GetFloat64(key.TUISeekStep),
		})
		final = coordinator.Snapshot()
	}

	remember(target, coordinator.Snapshot())
	_ = coordinator.Stop()
	return final, err
}

func resolveTarget(options *playOptions) (*playTarget, error) {
	if options.Continue {
		saved, ok := history.Last().Get()
		if !ok {
			return nil, errors.New("nothing to continue, play something first")
		}

		p, ok := provider.Get(saved.ProviderID)
		if !ok {
			return nil, fmt.Errorf("reciter %s is no longer available", style.Fg(color.Yellow)(saved.ProviderID))
		}

		target := &playTarget{provider: p, surah: saved.Surah}
		if !saved.Finished() {
			target.resume = saved.Position
		}
		return target, nil
	}

	p, err := pickProvider(options.Reciter)
	if err != nil {
		return nil, err
	}

	surahs, err := inline.ParseSurahs(options.Surah)
	if err != nil {
		return nil, err
	}
	if len(surahs) != 1 {
		return nil, fmt.Errorf("play takes a single surah, got %d", len(surahs))
	}

	return &playTarget{provider: p, surah: surahs[0]}, nil
}

// pickProvider finds the reciter named by query, asking the user when the match is ambiguous.
func pickProvider(query string) (*provider.Provider, error) {
	matches := provider.Find(query)

	switch len(matches) {
	case 0:
		if closest, ok := provider.Closest(query); ok {
			return nil, fmt.Errorf(
				"unknown reciter %s, did you mean %s?",
				style.Fg(color.Red)(query),
				style.Fg(color.Yellow)(closest.ID),
			)
		}
		return nil, fmt.Errorf("unknown reciter %s", query)
	case 1:
		return matches[0], nil
	}

	prompt := &survey.Select{
		Message: fmt.Sprintf("Several reciters match %q. Which one?", query),
		Options: lo.Map(matches, func(p *provider.Provider, _ int) string {
			return fmt.Sprintf("%s (%s)", p.Name, p.ID)
		}),
	}

	var index int
	if err := survey.AskOne(prompt, &index); err != nil {
		return nil, err
	}
	return matches[index], nil
}

// remember saves the session so that --continue can pick it up.
func remember(target *playTarget, snap playback.Snapshot) {
	if !viper.GetBool(key.HistorySave) || snap.Locator == "" {
		return
	}

	t, ok := snap.Track.Get()
	if !ok {
		return
	}

	err := history.Save(&history.SavedPlay{
		ProviderID:   target.provider.ID,
		ProviderName: target.provider.Name,
		Surah:        target.surah,
		Title:        t.Title,
		Locator:      snap.Locator,
		Position:     snap.Position,
		Duration:     snap.Duration,
	})
	if err != nil {
		log.Warn(err)
	}
}

func completionReciters(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return lo.Map(provider.All(), func(p *provider.Provider, _ int) string {
		return p.ID
	}), cobra.ShellCompDirectiveNoFileComp
}
