package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cityequip/cityequip/internal/ingest"
)

var seedPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the source file into an empty store",
	Long:  "Loads the equipment extract only when the store holds no records; otherwise reports the existing count.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedPath != "" {
			cfg.Source.Path = seedPath
		}
		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		out, err := ingest.NewLoader(st, cfg.Source.IngestSource()).Seed(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.String())
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPath, "file", "", "source file (default from config)")
	rootCmd.AddCommand(seedCmd)
}
