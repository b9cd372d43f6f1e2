package commands

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-accompany/algorithms/chroma"
	"github.com/RyanBlaney/sonido-accompany/algorithms/tonal"
)

func newKeyCmd(a *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "key <bundle>",
		Short: "Print the fitted key and note sequence of a stored vocal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			bundles, err := a.openBundles()
			if err != nil {
				return err
			}
			defer bundles.Close()

			vocal, err := loadVocal(ctx, bundles, args[0])
			if err != nil {
				return err
			}

			harmonic, err := vocal.Analyze(a.cfg.Analysis)
			if err != nil {
				return err
			}
			melody := tonal.NewMelodyWithParams(a.cfg.Fit, tonal.DefaultScales())
			if err := melody.Fit(harmonic); err != nil {
				return err
			}
			if err := melody.SimpleTransform(harmonic); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "key: %s\n", melody.Scale.Name())

			if top > 0 {
				scores := slices.Clone(melody.Scores())
				slices.SortStableFunc(scores, func(x, y tonal.ScaleScore) int {
					return cmp.Compare(y.Score, x.Score)
				})
				for _, s := range scores[:min(top, len(scores))] {
					fmt.Fprintf(w, "  %-9s %g\n", s.Scale.Name(), s.Score)
				}
			}

			labels := chroma.Labels()
			names := make([]string, len(melody.Notations))
			for i, n := range melody.Notations {
				names[i] = labels[n]
			}
			fmt.Fprintf(w, "notes: %s\n", strings.Join(names, " "))
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "also list the best N candidate scales")
	return cmd
}
