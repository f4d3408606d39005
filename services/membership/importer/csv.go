package importer

import "strings"

// Tokenize splits raw CSV text into rows of fields. Double-quoted fields may
// contain commas, newlines and escaped quotes ("" -> "). Carriage returns
// outside quotes are dropped, so CRLF files parse the same as LF files, and
// a trailing row of nothing but empty fields is discarded.
//
// An unterminated quote consumes the remainder of the input into the current
// field. That quirk is deliberate and load-bearing: the import wizard shows
// the mangled preview instead of refusing the file.
func Tokenize(content string) [][]string {
	var rows [][]string
	var current []string
	var field strings.Builder
	inQuotes := false

	pushField := func() {
		current = append(current, field.String())
		field.Reset()
	}
	pushRow := func() {
		rows = append(rows, current)
		current = nil
	}

	for i := 0; i < len(content); i++ {
		c := content[i]
		if inQuotes {
			if c == '"' {
				if i+1 < len(content) && content[i+1] == '"' {
					field.WriteByte('"') // escaped quote
					i++
				} else {
					inQuotes = false
				}
			} else {
				field.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case ',':
			pushField()
		case '\n':
			pushField()
			pushRow()
		case '\r':
			// ignore, handled on \n
		default:
			field.WriteByte(c)
		}
	}

	pushField()
	if len(current) > 1 || (len(current) == 1 && current[0] != "") {
		pushRow()
	}

	// Drop a trailing all-empty row left behind by a terminating newline.
	for len(rows) > 0 && rowEmpty(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func rowEmpty(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
