package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cityequip/cityequip/internal/ingest"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every record and reload the source file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return eris.New("reset deletes every stored record; pass --yes to confirm")
		}
		if err := cfg.Validate("reset"); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Server.ResetTimeoutSecs)*time.Second)
		defer cancel()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := ingest.NewLoader(st, cfg.Source.IngestSource()).Reset(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
	rootCmd.AddCommand(resetCmd)
}
