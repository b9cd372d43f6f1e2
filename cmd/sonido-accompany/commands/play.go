package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-accompany/playback"
	"github.com/RyanBlaney/sonido-accompany/transcode"
)

func newPlayCmd(a *app) *cobra.Command {
	var (
		bundle bool
		volume float64
	)

	cmd := &cobra.Command{
		Use:   "play <file.wav | bundle>",
		Short: "Play a WAV file, or a stored bundle with --bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				samples []float64
				rate    int
			)
			if bundle {
				bundles, err := a.openBundles()
				if err != nil {
					return err
				}
				defer bundles.Close()
				vocal, err := loadVocal(ctx, bundles, args[0])
				if err != nil {
					return err
				}
				samples, rate = vocal.Samples, vocal.SampleRate
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				samples, rate, err = transcode.DecodeWAV(f)
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "playing %s (%.2fs)\n", args[0], float64(len(samples))/float64(rate))
			opts := playback.DefaultOptions()
			opts.Volume = volume
			return playback.Play(ctx, samples, rate, opts)
		},
	}

	cmd.Flags().BoolVar(&bundle, "bundle", false, "treat the argument as a bundle name")
	cmd.Flags().Float64Var(&volume, "volume", 1, "linear gain")
	return cmd
}
