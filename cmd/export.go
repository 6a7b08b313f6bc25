package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cityequip/cityequip/internal/export"
	"github.com/cityequip/cityequip/internal/model"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records as GeoJSON, XLSX or Shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = "equipments" + format.Ext()
		}
		if out == "-" && format == export.FormatShapefile {
			return eris.New("shapefile export needs a file path")
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		items, err := st.All(ctx)
		if err != nil {
			return eris.Wrap(err, "load equipments")
		}

		n, err := writeExport(cmd.OutOrStdout(), format, out, items)
		if err != nil {
			return err
		}
		zap.L().Info("export complete",
			zap.String("format", string(format)),
			zap.String("path", out),
			zap.Int("written", n),
			zap.Int("stored", len(items)),
		)
		if out != "-" {
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", n, out)
		}
		return nil
	},
}

func writeExport(stdout io.Writer, format export.Format, out string, items []model.Equipment) (int, error) {
	if format == export.FormatShapefile {
		return export.WriteShapefile(out, items)
	}

	w := stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return 0, eris.Wrap(err, "create export file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	switch format {
	case export.FormatGeoJSON:
		return export.WriteGeoJSON(w, items)
	case export.FormatXLSX:
		return export.WriteXLSX(w, items)
	}
	return 0, eris.Errorf("unsupported format %q", format)
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", string(export.FormatGeoJSON), "geojson, xlsx or shp")
	exportCmd.Flags().StringVar(&exportOut, "out", "", `output path ("-" for stdout; default equipments.<ext>)`)
	rootCmd.AddCommand(exportCmd)
}
