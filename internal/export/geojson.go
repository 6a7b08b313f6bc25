package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/cityequip/cityequip/internal/model"
)

// FeatureCollection converts records into a GeoJSON feature collection.
// Records without a location are left out; the count is returned.
func FeatureCollection(items []model.Equipment) (*geojson.FeatureCollection, int) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(items))}
	skipped := 0
	for i := range items {
		e := &items[i]
		if e.Location == nil {
			skipped++
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         e.ID,
			Geometry:   e.Location,
			Properties: properties(e),
		})
	}
	return fc, skipped
}

func properties(e *model.Equipment) map[string]any {
	props := map[string]any{
		"name":        e.Name,
		"schedule":    e.Schedule,
		"type":        e.Type,
		"isMunicipal": e.IsMunicipal,
		"address":     e.Address,
		"phone":       e.Phone,
		"district":    e.District,
		"agencyCode":  e.AgencyCode,
		"agencyName":  e.AgencyName,
	}
	if !e.CreatedAt.IsZero() {
		props["createdAt"] = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !e.UpdatedAt.IsZero() {
		props["updatedAt"] = e.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return props
}

// WriteGeoJSON encodes items as a FeatureCollection and returns the number
// of features written.
func WriteGeoJSON(w io.Writer, items []model.Equipment) (int, error) {
	fc, _ := FeatureCollection(items)
	data, err := json.Marshal(fc)
	if err != nil {
		return 0, eris.Wrap(err, "export: encode geojson")
	}
	if _, err := w.Write(data); err != nil {
		return 0, eris.Wrap(err, "export: write geojson")
	}
	return len(fc.Features), nil
}
