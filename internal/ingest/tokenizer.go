package ingest

import "strings"

type state uint8

const (
	unquoted state = iota
	quoted
)

type class uint8

const (
	classQuote     class = iota // a lone '"'
	classQuotePair              // '""' while quoted
	classComma
	classOther
)

type action uint8

const (
	actDrop        action = iota // consume input, write nothing
	actEmit                      // finish the current field
	actAppend                    // append the input byte
	actAppendQuote               // append one literal '"'
)

type transition struct {
	next  state
	act   action
	width int
}

// transitions is the complete tokenizer state machine. classQuotePair is never
// produced while unquoted; its entry mirrors classQuote so the table is total.
var transitions = [2][4]transition{
	unquoted: {
		classQuote:     {quoted, actDrop, 1},
		classQuotePair: {quoted, actDrop, 1},
		classComma:     {unquoted, actEmit, 1},
		classOther:     {unquoted, actAppend, 1},
	},
	quoted: {
		classQuote:     {unquoted, actDrop, 1},
		classQuotePair: {quoted, actAppendQuote, 2},
		classComma:     {quoted, actAppend, 1},
		classOther:     {quoted, actAppend, 1},
	},
}

func classify(s state, line string, i int) class {
	switch line[i] {
	case '"':
		if s == quoted && i+1 < len(line) && line[i+1] == '"' {
			return classQuotePair
		}
		return classQuote
	case ',':
		return classComma
	default:
		return classOther
	}
}

// Tokenize splits one line into trimmed fields. Quoted fields may contain
// commas and "" escapes. An unterminated quote closes at end of line; anomaly
// reports that recovery. Tokenize never fails.
func Tokenize(line string) (fields []string, anomaly bool) {
	line = stripWrappingQuotes(line)

	var (
		cur strings.Builder
		s   = unquoted
	)
	for i := 0; i < len(line); {
		t := transitions[s][classify(s, line, i)]
		switch t.act {
		case actEmit:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		case actAppend:
			cur.WriteByte(line[i])
		case actAppendQuote:
			cur.WriteByte('"')
		}
		s = t.next
		i += t.width
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields, s == quoted
}

// stripWrappingQuotes removes one pair of outer quotes when the whole line is
// a single quoted region holding more than one field: the opening quote must
// close exactly at the last byte and the enclosed text must contain a comma.
func stripWrappingQuotes(line string) string {
	if len(line) < 2 || line[0] != '"' || line[len(line)-1] != '"' {
		return line
	}
	inner := line[1 : len(line)-1]
	if !strings.Contains(inner, ",") {
		return line
	}
	for i := 1; i < len(line); i++ {
		if line[i] != '"' {
			continue
		}
		if i+1 < len(line) && line[i+1] == '"' {
			i++
			continue
		}
		if i == len(line)-1 {
			return inner
		}
		return line
	}
	return line
}
