package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cityequip/cityequip/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cityequip",
	Short: "Municipal equipment catalogue API and loader",
	Long: "Loads the municipal equipment open-data extract into Postgres/PostGIS (or SQLite), " +
		"serves it over a REST API and exports it as GeoJSON, XLSX or Shapefile.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadDotEnv(config.DotEnvFiles...); err != nil {
			return eris.Wrap(err, "load dotenv")
		}

		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
