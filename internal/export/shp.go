package export

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/cityequip/cityequip/internal/model"
)

// wgs84PRJ is the ESRI WKT written to the .prj sidecar.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// DBF attribute columns. Names are capped at 10 bytes by the format.
var shpFields = []shp.Field{
	shp.StringField("ID", 36),
	shp.StringField("NAME", 254),
	shp.StringField("SCHEDULE", 254),
	shp.StringField("TYPE", 254),
	shp.NumberField("MUNICIPAL", 1),
	shp.StringField("ADDRESS", 254),
	shp.StringField("PHONE", 64),
	shp.StringField("DISTRICT", 128),
	shp.StringField("AGENCY_COD", 32),
	shp.StringField("AGENCY_NAM", 254),
}

// WriteShapefile writes a point shapefile at path (.shp plus .shx, .dbf,
// .prj and .cpg siblings). Records without a location are skipped. Returns
// the number of points written.
func WriteShapefile(path string, items []model.Equipment) (int, error) {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		path += ".shp"
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create shapefile %s", path)
	}
	if err := w.SetFields(shpFields); err != nil {
		w.Close()
		return 0, eris.Wrap(err, "export: set dbf fields")
	}

	written := 0
	for i := range items {
		e := &items[i]
		if e.Location == nil {
			continue
		}
		row := int(w.Write(&shp.Point{X: e.Longitude(), Y: e.Latitude()}))
		if err := writeAttributes(w, row, e); err != nil {
			w.Close()
			return written, err
		}
		written++
	}
	w.Close()

	base := strings.TrimSuffix(path, filepath.Ext(path))
	// shp.Writer names the attribute table base+"dbf".
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return written, eris.Wrap(err, "export: rename dbf")
	}
	if err := os.WriteFile(base+".prj", []byte(wgs84PRJ), 0o644); err != nil {
		return written, eris.Wrap(err, "export: write prj")
	}
	if err := os.WriteFile(base+".cpg", []byte("UTF-8"), 0o644); err != nil {
		return written, eris.Wrap(err, "export: write cpg")
	}
	return written, nil
}

func writeAttributes(w *shp.Writer, row int, e *model.Equipment) error {
	municipal := 0
	if e.IsMunicipal {
		municipal = 1
	}
	values := []any{
		e.ID, e.Name, e.Schedule, e.Type, municipal,
		e.Address, e.Phone, e.District, e.AgencyCode, e.AgencyName,
	}
	for i, v := range values {
		if s, ok := v.(string); ok {
			v = truncate(s, int(shpFields[i].Size))
		}
		if err := w.WriteAttribute(row, i, v); err != nil {
			return eris.Wrapf(err, "export: write attribute %d of record %s", i, e.ID)
		}
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
