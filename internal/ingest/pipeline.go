package ingest

import (
	"github.com/cityequip/cityequip/internal/model"
)

// Parse runs the line scanner, tokenizer, header binder and mapper over
// decoded text. It returns the mapped records in file order and the
// outcome counters; Inserted is left for the caller.
func Parse(text string, columns ColumnMap) ([]model.Equipment, model.LoadOutcome) {
	var (
		out     model.LoadOutcome
		records []model.Equipment
		mapper  *Mapper
	)

	for lineNo, line := range Lines(text) {
		tokens, anomaly := Tokenize(line)
		if mapper == nil {
			mapper = NewMapper(BindSchema(tokens), columns)
			continue
		}

		out.RowsRead++
		if anomaly {
			out.Anomalies++
		}

		res := mapper.Map(tokens)
		if !res.OK() {
			out.AddSkip(lineNo, res.Skip, res.Detail)
			continue
		}
		records = append(records, *res.Record)
		out.Mapped++
	}

	return records, out
}
