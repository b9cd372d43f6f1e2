package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-accompany/accompaniment"
	"github.com/RyanBlaney/sonido-accompany/storage"
	"github.com/RyanBlaney/sonido-accompany/transcode"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		out   string
		save  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "render <bundle>",
		Short: "Render a stored vocal with a piano accompaniment",
		Long: `Render a stored vocal with a piano accompaniment and write the mix as
16-bit WAV. With --watch the mix is rendered again whenever the config file
or the piano samples change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			if out == "" {
				out = name + ".wav"
			}

			bundles, err := a.openBundles()
			if err != nil {
				return err
			}
			defer bundles.Close()

			vocal, err := loadVocal(ctx, bundles, name)
			if err != nil {
				return err
			}

			render := func() error {
				return renderVocal(ctx, cmd, a, bundles, vocal, out, save)
			}
			if err := render(); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			paths := []string{a.files.Resolve(a.cfg.Piano.SampleDir)}
			if a.configPath != "" {
				paths = append(paths, filepath.Dir(a.configPath))
			}
			return watchPaths(ctx, paths, func() error {
				if err := a.reload(cmd); err != nil {
					return err
				}
				return render()
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output WAV file (default: <bundle>.wav)")
	cmd.Flags().StringVar(&save, "save", "", "also store the mixed track as a bundle with this name")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render when the config or piano samples change")
	return cmd
}

func renderVocal(ctx context.Context, cmd *cobra.Command, a *app, bundles storage.BundleStore, vocal *accompaniment.Vocal, out, save string) error {
	loader := transcode.NewSampleLoader(a.files, a.cfg.Piano.SampleDir)
	res, err := accompaniment.NewPipeline(a.cfg.Options(), loader).Run(ctx, vocal.Beat, vocal.Track)
	if err != nil {
		return err
	}

	if err := writeWAV(out, res.Mixed); err != nil {
		return err
	}
	if save != "" {
		if err := bundles.Save(ctx, save, accompaniment.NewBundle(res.Mixed, vocal.Beat)); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "key: %s\n", res.Melody.Scale.Name())
	fmt.Fprintf(w, "wrote %s: %.2fs at %d Hz\n", out, res.Mixed.Duration, res.Mixed.SampleRate)
	return nil
}

func loadVocal(ctx context.Context, bundles storage.BundleStore, name string) (*accompaniment.Vocal, error) {
	b, err := bundles.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return accompaniment.VocalFromBundle(b)
}

func writeWAV(path string, track accompaniment.Track) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := transcode.EncodeWAV(f, track.Samples, track.SampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
