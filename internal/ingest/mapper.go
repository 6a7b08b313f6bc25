package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cityequip/cityequip/internal/model"
)

// MunicipalYes is the only source literal that marks an equipment as municipal.
const MunicipalYes = "Sí"

// MapResult holds exactly one of Record or a skip reason.
type MapResult struct {
	Record *model.Equipment
	Skip   model.SkipReason
	Detail string
}

// OK reports whether the row produced a record.
func (r MapResult) OK() bool { return r.Record != nil }

// Mapper turns data rows into equipment records against a bound Schema.
type Mapper struct {
	schema  *Schema
	columns ColumnMap
}

// NewMapper creates a Mapper. Empty column identifiers fall back to defaults.
func NewMapper(schema *Schema, columns ColumnMap) *Mapper {
	return &Mapper{schema: schema, columns: columns.WithDefaults()}
}

// Map converts one tokenized data row. It never fails: rows that cannot
// become a record return a skip reason.
func (m *Mapper) Map(row []string) MapResult {
	if len(row) < 2 {
		return MapResult{Skip: model.SkipTooFewFields, Detail: fmt.Sprintf("%d field(s)", len(row))}
	}

	get := func(col string) string {
		return unwrapQuotes(m.schema.Value(row, col))
	}

	latRaw, lonRaw := get(m.columns.Latitude), get(m.columns.Longitude)
	lat, latOK := ParseCoordinate(latRaw)
	lon, lonOK := ParseCoordinate(lonRaw)
	if !latOK || !lonOK {
		return MapResult{
			Skip:   model.SkipCoordinateUnparseable,
			Detail: fmt.Sprintf("%s=%q %s=%q", m.columns.Latitude, latRaw, m.columns.Longitude, lonRaw),
		}
	}

	return MapResult{Record: &model.Equipment{
		Name:        get(m.columns.Name),
		Schedule:    get(m.columns.Schedule),
		Type:        get(m.columns.Type),
		IsMunicipal: get(m.columns.Municipal) == MunicipalYes,
		Location:    model.NewPoint(lon, lat),
		Address:     get(m.columns.Address),
		Phone:       get(m.columns.Phone),
		District:    get(m.columns.District),
		AgencyCode:  get(m.columns.AgencyCode),
		AgencyName:  get(m.columns.AgencyName),
	}}
}

// ParseCoordinate parses a decimal coordinate, retrying once with the first
// comma replaced by a period. Hexadecimal, underscore-separated and
// non-finite values are rejected.
func ParseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return 0, false
		}
	}
	if !model.Finite(v, 0) {
		return 0, false
	}
	return v, true
}

// unwrapQuotes strips one layer of surrounding quotes.
func unwrapQuotes(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
