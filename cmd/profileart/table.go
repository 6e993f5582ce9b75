package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/youruser/profileart/internal/table"
	"github.com/youruser/profileart/internal/util"
)

var tableOutput string

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Generate or verify the decoration selection table",
}

var tableGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the selection table HTML",
	RunE: func(cmd *cobra.Command, args []string) error {
		html, err := renderTable(cmd)
		if err != nil {
			return err
		}
		out := tableFile()
		if out == "-" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), html)
			return err
		}
		if err := util.WriteFileAtomic(out, []byte(html)); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		return nil
	},
}

var tableCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Fail if the stored selection table is out of date",
	RunE: func(cmd *cobra.Command, args []string) error {
		html, err := renderTable(cmd)
		if err != nil {
			return err
		}
		stored, err := os.ReadFile(tableFile())
		if err != nil {
			return fmt.Errorf("reading stored table: %w", err)
		}
		if err := table.CheckDrift(html, string(stored)); err != nil {
			return fmt.Errorf("%w (run `profileart table generate`)", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", tableFile())
		return nil
	},
}

func init() {
	tableCmd.PersistentFlags().StringVarP(&tableOutput, "file", "f", "", "table file (default from config; - for stdout)")
	tableCmd.AddCommand(tableGenerateCmd, tableCheckCmd)
}

func tableFile() string {
	if tableOutput != "" {
		return tableOutput
	}
	return cfg.TableFile
}

func renderTable(cmd *cobra.Command) (string, error) {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return "", err
	}
	ds, err := a.loader.LoadAll(cmd.Context())
	if err != nil {
		return "", err
	}
	return a.table.Build(ds).HTML(), nil
}
