package ingest

import "strings"

// ColumnMap names the source columns read by the mapper. The identifiers are
// the external vocabulary of the municipal extract.
type ColumnMap struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Schedule   string `yaml:"schedule" mapstructure:"schedule"`
	Type       string `yaml:"type" mapstructure:"type"`
	Municipal  string `yaml:"municipal" mapstructure:"municipal"`
	Latitude   string `yaml:"latitude" mapstructure:"latitude"`
	Longitude  string `yaml:"longitude" mapstructure:"longitude"`
	Address    string `yaml:"address" mapstructure:"address"`
	Phone      string `yaml:"phone" mapstructure:"phone"`
	District   string `yaml:"district" mapstructure:"district"`
	AgencyCode string `yaml:"agency_code" mapstructure:"agency_code"`
	AgencyName string `yaml:"agency_name" mapstructure:"agency_name"`
}

// DefaultColumns returns the column identifiers of the Catalan open-data extract.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Name:       "nom",
		Schedule:   "horari",
		Type:       "tipus",
		Municipal:  "municipal",
		Latitude:   "latitud",
		Longitude:  "longitud",
		Address:    "localitzacio",
		Phone:      "telefon",
		District:   "districte",
		AgencyCode: "CODI_ENS",
		AgencyName: "NOM_ENS",
	}
}

// WithDefaults fills empty identifiers from DefaultColumns.
func (c ColumnMap) WithDefaults() ColumnMap {
	d := DefaultColumns()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&c.Name, d.Name)
	fill(&c.Schedule, d.Schedule)
	fill(&c.Type, d.Type)
	fill(&c.Municipal, d.Municipal)
	fill(&c.Latitude, d.Latitude)
	fill(&c.Longitude, d.Longitude)
	fill(&c.Address, d.Address)
	fill(&c.Phone, d.Phone)
	fill(&c.District, d.District)
	fill(&c.AgencyCode, d.AgencyCode)
	fill(&c.AgencyName, d.AgencyName)
	return c
}

// Schema is the ordered list of column names bound from the header row.
// It is immutable once bound.
type Schema struct {
	columns []string
	index   map[string]int
}

// BindSchema builds a Schema from the header tokens, stripping a residual
// leading and trailing quote from each name. Presence of expected columns is
// not checked; a missing column reads as "".
func BindSchema(tokens []string) *Schema {
	s := &Schema{
		columns: make([]string, len(tokens)),
		index:   make(map[string]int, len(tokens)),
	}
	for i, tok := range tokens {
		name := strings.TrimPrefix(tok, `"`)
		name = strings.TrimSuffix(name, `"`)
		s.columns[i] = name
		s.index[name] = i
	}
	return s
}

// Columns returns a copy of the column names in header order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Index returns the position of the named column. Lookup is exact and
// case-sensitive; for duplicate names the last position wins.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Value returns the row's value for the named column, or "" when the column
// is unknown or the row is shorter than the header.
func (s *Schema) Value(row []string, name string) string {
	i, ok := s.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
