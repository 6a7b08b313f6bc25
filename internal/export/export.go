// Package export writes stored equipment records to interchange formats:
// GeoJSON, XLSX and ESRI Shapefile.
package export

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Format names an export encoding.
type Format string

const (
	FormatGeoJSON   Format = "geojson"
	FormatXLSX      Format = "xlsx"
	FormatShapefile Format = "shp"
)

// Formats lists every supported format in CLI order.
var Formats = []Format{FormatGeoJSON, FormatXLSX, FormatShapefile}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "shapefile" {
		f = FormatShapefile
	}
	if !slices.Contains(Formats, f) {
		return "", eris.Errorf("export: unknown format %q (want geojson, xlsx or shp)", s)
	}
	return f, nil
}

// Ext returns the conventional file extension, with the leading dot.
func (f Format) Ext() string {
	switch f {
	case FormatGeoJSON:
		return ".geojson"
	case FormatXLSX:
		return ".xlsx"
	case FormatShapefile:
		return ".shp"
	}
	return ""
}
