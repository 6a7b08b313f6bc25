package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// SRID is the spatial reference of every equipment location (WGS 84).
const SRID = 4326

// Equipment is one municipal equipment entry. Location is always a 2D point
// ordered (longitude, latitude).
type Equipment struct {
	ID          string
	Name        string
	Schedule    string
	Type        string
	IsMunicipal bool
	Location    *geom.Point
	Address     string
	Phone       string
	District    string
	AgencyCode  string
	AgencyName  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPoint builds a WGS 84 point from longitude and latitude.
func NewPoint(lon, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(SRID)
}

// Finite reports whether both coordinates are usable numbers.
func Finite(lon, lat float64) bool {
	return !math.IsNaN(lon) && !math.IsInf(lon, 0) && !math.IsNaN(lat) && !math.IsInf(lat, 0)
}

// Longitude returns the X coordinate, or NaN without a location.
func (e *Equipment) Longitude() float64 {
	if e.Location == nil {
		return math.NaN()
	}
	return e.Location.X()
}

// Latitude returns the Y coordinate, or NaN without a location.
func (e *Equipment) Latitude() float64 {
	if e.Location == nil {
		return math.NaN()
	}
	return e.Location.Y()
}

// Validate checks the fields required for a record written through the API.
func (e *Equipment) Validate() error {
	if e.Name == "" {
		return eris.New("name is required")
	}
	if e.Type == "" {
		return eris.New("type is required")
	}
	if e.Location == nil {
		return eris.New("location is required")
	}
	if !Finite(e.Longitude(), e.Latitude()) {
		return eris.New("location coordinates must be finite numbers")
	}
	return nil
}

// equipmentJSON is the wire shape shared with the web frontend, which
// addresses records by the document-store key _id.
type equipmentJSON struct {
	ID          string            `json:"id,omitempty"`
	DocID       string            `json:"_id,omitempty"`
	Name        string            `json:"name"`
	Schedule    string            `json:"schedule"`
	Type        string            `json:"type"`
	IsMunicipal bool              `json:"isMunicipal"`
	Location    *geojson.Geometry `json:"location,omitempty"`
	Address     string            `json:"address"`
	Phone       string            `json:"phone"`
	District    string            `json:"district"`
	AgencyCode  string            `json:"agencyCode"`
	AgencyName  string            `json:"agencyName"`
	CreatedAt   *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
}

// MarshalJSON encodes the location as a GeoJSON point.
func (e Equipment) MarshalJSON() ([]byte, error) {
	out := equipmentJSON{
		ID:          e.ID,
		DocID:       e.ID,
		Name:        e.Name,
		Schedule:    e.Schedule,
		Type:        e.Type,
		IsMunicipal: e.IsMunicipal,
		Address:     e.Address,
		Phone:       e.Phone,
		District:    e.District,
		AgencyCode:  e.AgencyCode,
		AgencyName:  e.AgencyName,
	}
	if e.Location != nil {
		g, err := geojson.Encode(e.Location)
		if err != nil {
			return nil, eris.Wrap(err, "model: encode location")
		}
		out.Location = g
	}
	if !e.CreatedAt.IsZero() {
		out.CreatedAt = &e.CreatedAt
	}
	if !e.UpdatedAt.IsZero() {
		out.UpdatedAt = &e.UpdatedAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a GeoJSON point for the location. Any other geometry
// type is rejected. _id is used when id is absent.
func (e *Equipment) UnmarshalJSON(data []byte) error {
	var in equipmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*e = Equipment{
		ID:          in.ID,
		Name:        in.Name,
		Schedule:    in.Schedule,
		Type:        in.Type,
		IsMunicipal: in.IsMunicipal,
		Address:     in.Address,
		Phone:       in.Phone,
		District:    in.District,
		AgencyCode:  in.AgencyCode,
		AgencyName:  in.AgencyName,
	}
	if e.ID == "" {
		e.ID = in.DocID
	}
	if in.CreatedAt != nil {
		e.CreatedAt = *in.CreatedAt
	}
	if in.UpdatedAt != nil {
		e.UpdatedAt = *in.UpdatedAt
	}

	if in.Location == nil {
		return nil
	}
	g, err := in.Location.Decode()
	if err != nil {
		return eris.Wrap(err, "model: decode location")
	}
	pt, ok := g.(*geom.Point)
	if !ok || pt.Empty() {
		return eris.Errorf("model: location must be a Point, got %s", in.Location.Type)
	}
	e.Location = NewPoint(pt.X(), pt.Y())
	return nil
}
