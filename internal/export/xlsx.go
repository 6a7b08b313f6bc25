package export

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/cityequip/cityequip/internal/model"
)

// SheetName is the worksheet holding exported records.
const SheetName = "equipments"

// XLSXHeader is the first row of the exported sheet.
var XLSXHeader = []string{
	"id", "name", "schedule", "type", "isMunicipal", "longitude", "latitude",
	"address", "phone", "district", "agencyCode", "agencyName", "createdAt", "updatedAt",
}

// WriteXLSX writes one row per record below a header row and returns the
// number of records written. Coordinates are left blank when a record has
// no location.
func WriteXLSX(w io.Writer, items []model.Equipment) (int, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range XLSXHeader {
		header.AddCell().SetString(h)
	}

	for i := range items {
		e := &items[i]
		row := sheet.AddRow()
		row.AddCell().SetString(e.ID)
		row.AddCell().SetString(e.Name)
		row.AddCell().SetString(e.Schedule)
		row.AddCell().SetString(e.Type)
		row.AddCell().SetBool(e.IsMunicipal)
		lon, lat := row.AddCell(), row.AddCell()
		if e.Location != nil {
			lon.SetFloat(e.Longitude())
			lat.SetFloat(e.Latitude())
		}
		row.AddCell().SetString(e.Address)
		row.AddCell().SetString(e.Phone)
		row.AddCell().SetString(e.District)
		row.AddCell().SetString(e.AgencyCode)
		row.AddCell().SetString(e.AgencyName)
		row.AddCell().SetString(formatTime(e.CreatedAt))
		row.AddCell().SetString(formatTime(e.UpdatedAt))
	}

	if err := f.Write(w); err != nil {
		return 0, eris.Wrap(err, "export: write xlsx")
	}
	return len(items), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
