package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/cityequip/cityequip/internal/model"
)

func sampleItems() []model.Equipment {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return []model.Equipment{
		{
			ID: "a1", Name: "Biblioteca Sant Antoni", Schedule: "9-21", Type: "Biblioteca",
			IsMunicipal: true, Location: model.NewPoint(2.16, 41.38),
			Address: "Carrer del Comte Borrell, 44", District: "Eixample",
			AgencyCode: "08019", AgencyName: "Ajuntament de Barcelona",
			CreatedAt: ts, UpdatedAt: ts,
		},
		{ID: "b2", Name: "Sense ubicació", Type: "Altres", CreatedAt: ts, UpdatedAt: ts},
		{
			ID: "c3", Name: "Poliesportiu", Type: "Esports",
			Location: model.NewPoint(2.19, 41.40), Phone: "933 000 000",
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"geojson", FormatGeoJSON},
		{" XLSX ", FormatXLSX},
		{"shp", FormatShapefile},
		{"shapefile", FormatShapefile},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("kml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "kml"`)
}

func TestFormat_Ext(t *testing.T) {
	assert.Equal(t, ".geojson", FormatGeoJSON.Ext())
	assert.Equal(t, ".xlsx", FormatXLSX.Ext())
	assert.Equal(t, ".shp", FormatShapefile.Ext())
	assert.Empty(t, Format("kml").Ext())
}

func TestFeatureCollection_SkipsMissingLocation(t *testing.T) {
	fc, skipped := FeatureCollection(sampleItems())
	assert.Equal(t, 1, skipped)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "a1", fc.Features[0].ID)
	assert.Equal(t, "Biblioteca", fc.Features[0].Properties["type"])
	assert.Equal(t, true, fc.Features[0].Properties["isMunicipal"])
	assert.Equal(t, "2024-05-01T10:00:00Z", fc.Features[0].Properties["createdAt"])
	assert.NotContains(t, fc.Features[1].Properties, "createdAt")
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteGeoJSON(&buf, sampleItems())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "FeatureCollection", raw["type"])

	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	require.Len(t, fc.Features, 2)
	pt, ok := fc.Features[0].Geometry.(*geom.Point)
	require.True(t, ok)
	assert.InDelta(t, 2.16, pt.X(), 1e-9)
	assert.InDelta(t, 41.38, pt.Y(), 1e-9)
	assert.Equal(t, "Biblioteca Sant Antoni", fc.Features[0].Properties["name"])
}

func TestWriteGeoJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteGeoJSON(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, buf.String(), `"features":[]`)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteXLSX(&buf, sampleItems())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 4)

	header := sheet.Rows[0]
	require.Len(t, header.Cells, len(XLSXHeader))
	assert.Equal(t, "id", header.Cells[0].String())
	assert.Equal(t, "updatedAt", header.Cells[13].String())

	first := sheet.Rows[1]
	assert.Equal(t, "a1", first.Cells[0].String())
	assert.Equal(t, "Biblioteca Sant Antoni", first.Cells[1].String())
	assert.True(t, first.Cells[4].Bool())
	lon, err := first.Cells[5].Float()
	require.NoError(t, err)
	assert.InDelta(t, 2.16, lon, 1e-9)
	assert.Equal(t, "2024-05-01T10:00:00Z", first.Cells[12].String())

	noLoc := sheet.Rows[2]
	assert.Equal(t, "b2", noLoc.Cells[0].String())
	assert.Empty(t, noLoc.Cells[5].String())
	assert.Empty(t, noLoc.Cells[6].String())
}

func TestWriteShapefile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "equipments")

	n, err := WriteShapefile(path, sampleItems())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj", ".cpg"} {
		_, err := os.Stat(path + ext)
		assert.NoError(t, err, ext)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	_, err = os.Stat(path + "dbf")
	assert.ErrorIs(t, err, os.ErrNotExist)

	r, err := shp.Open(path + ".shp")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	fieldIdx := map[string]int{}
	for i, f := range r.Fields() {
		fieldIdx[strings.TrimRight(f.String(), "\x00")] = i
	}
	require.Contains(t, fieldIdx, "NAME")
	require.Contains(t, fieldIdx, "MUNICIPAL")

	attr := func(name string) string {
		return strings.TrimSpace(strings.TrimRight(r.Attribute(fieldIdx[name]), "\x00"))
	}

	require.True(t, r.Next())
	_, shape := r.Shape()
	pt, ok := shape.(*shp.Point)
	require.True(t, ok)
	assert.InDelta(t, 2.16, pt.X, 1e-9)
	assert.InDelta(t, 41.38, pt.Y, 1e-9)
	assert.Equal(t, "a1", attr("ID"))
	assert.Equal(t, "Biblioteca Sant Antoni", attr("NAME"))
	assert.Equal(t, "1", attr("MUNICIPAL"))

	require.True(t, r.Next())
	assert.Equal(t, "c3", attr("ID"))
	assert.Equal(t, "0", attr("MUNICIPAL"))

	assert.False(t, r.Next())
}

func TestWriteShapefile_BadDir(t *testing.T) {
	_, err := WriteShapefile(filepath.Join(t.TempDir(), "missing", "out.shp"), sampleItems())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create shapefile")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	// "é" is two bytes; cutting inside it drops the whole rune.
	assert.Equal(t, "caf", truncate("café", 4))
	assert.Equal(t, "café", truncate("café", 5))
}
