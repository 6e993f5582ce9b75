package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/youruser/profileart/internal/decoration"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Lint decoration names, configs and asset sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if err := decoration.Validate(cmd.Context(), a.loader); err != nil {
			return err
		}
		names, err := a.loader.Registry().Names(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d decorations ok\n", len(names))
		return nil
	},
}
