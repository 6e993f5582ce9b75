package main

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/youruser/profileart/internal/decoration"
	imagepkg "github.com/youruser/profileart/internal/image"
	"github.com/youruser/profileart/internal/storage"
)

var examplesParallel int

var examplesCmd = &cobra.Command{
	Use:   "examples <gh-username> [filename]",
	Short: "Render every decoration onto a user's avatar and store the results",
	Long: `Render every decoration onto the GitHub avatar of <gh-username> and write
the result next to each decoration's assets as [filename] (default example.png).
An account with the default avatar makes neutral examples.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, filename := args[0], decoration.ExampleName
		if len(args) == 2 {
			filename = args[1]
		}

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		ds, err := a.loader.LoadAll(ctx)
		if err != nil {
			return err
		}
		avatar, err := imagepkg.DownloadImage(ctx, a.gh.HTTPClient(), a.gh.AvatarURL(user))
		if err != nil {
			return fmt.Errorf("fetching avatar of %s: %w", user, err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(examplesParallel, 1))
		for _, d := range ds {
			g.Go(func() error {
				img, err := a.compositor.Compose(gctx, d, avatar)
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := png.Encode(&buf, img); err != nil {
					return fmt.Errorf("encoding %s: %w", d.Name, err)
				}
				key := storage.Key(d.Name, filename)
				if err := a.bucket.Write(gctx, key, buf.Bytes()); err != nil {
					return err
				}
				slog.Debug("example written", "decoration", d.Name, "key", key)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d examples\n", len(ds))
		return nil
	},
}

func init() {
	examplesCmd.Flags().IntVarP(&examplesParallel, "parallel", "p", 4, "decorations rendered concurrently")
}
