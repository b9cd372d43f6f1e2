package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-accompany/accompaniment"
	"github.com/RyanBlaney/sonido-accompany/algorithms/temporal"
	"github.com/RyanBlaney/sonido-accompany/transcode"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		name   string
		rhythm int
		tempo  float64
	)

	cmd := &cobra.Command{
		Use:   "import <audio-file>",
		Short: "Decode a vocal recording and store it as a bundle",
		Long: `Decode any audio file FFmpeg understands to mono at decoder.sample_rate
and store it, together with its rhythm and tempo, as a bundle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			beat, err := temporal.NewBeat(rhythm, tempo)
			if err != nil {
				return err
			}
			if name == "" {
				base := filepath.Base(args[0])
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}

			audio, err := transcode.NewDecoder(&a.cfg.Decoder).DecodeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			track := accompaniment.NewTrack(audio.PCM, audio.SampleRate)

			bundles, err := a.openBundles()
			if err != nil {
				return err
			}
			defer bundles.Close()

			if err := bundles.Save(cmd.Context(), name, accompaniment.NewBundle(track, beat)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %.2fs at %d Hz, %s\n", name, track.Duration, track.SampleRate, beat)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "bundle name (default: file name without extension)")
	cmd.Flags().IntVar(&rhythm, "rhythm", 4, "beats per measure")
	cmd.Flags().Float64Var(&tempo, "tempo", 0, "tempo in BPM")
	_ = cmd.MarkFlagRequired("tempo")
	return cmd
}
