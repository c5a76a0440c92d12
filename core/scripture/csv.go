package scripture

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hafizlab/alfurqan/core/errors"
)

// ReadDictionaryCSV parses a dictionary import file. Two column layouts
// are accepted, matching the source formats in the wild:
//
//	text, ur_meaning, en_meaning
//	id, text, ur_meaning, en_meaning
//
// Rows with fewer than three columns are dropped with a diagnostic.
// When skipHeader is true the first record is discarded.
func ReadDictionaryCSV(r io.Reader, skipHeader bool) ([]DictionaryRow, []string, error) {
	records, diags, err := readRecords(r, skipHeader)
	if err != nil {
		return nil, nil, err
	}
	var rows []DictionaryRow
	for i, rec := range records {
		switch {
		case len(rec) >= 4:
			rows = append(rows, DictionaryRow{ID: rec[0], Text: rec[1], UrMeaning: rec[2], EnMeaning: rec[3]})
		case len(rec) == 3:
			rows = append(rows, DictionaryRow{Text: rec[0], UrMeaning: rec[1], EnMeaning: rec[2]})
		default:
			diags = append(diags, fmt.Sprintf("line %d: expected 3 or 4 columns, got %d", i+1, len(rec)))
		}
	}
	return rows, diags, nil
}

// ReadMappingCSV parses a word-position mapping file with columns
// (word_ref, surah, ayah, position). Rows with non-numeric coordinates
// are dropped with a diagnostic; word_ref stays textual because it may
// be either an id or a literal.
func ReadMappingCSV(r io.Reader, skipHeader bool) ([]MappingRow, []string, error) {
	records, diags, err := readRecords(r, skipHeader)
	if err != nil {
		return nil, nil, err
	}
	var rows []MappingRow
	for i, rec := range records {
		if len(rec) < 4 {
			diags = append(diags, fmt.Sprintf("line %d: expected 4 columns, got %d", i+1, len(rec)))
			continue
		}
		surah, err1 := strconv.Atoi(rec[1])
		ayah, err2 := strconv.Atoi(rec[2])
		position, err3 := strconv.Atoi(rec[3])
		if err1 != nil || err2 != nil || err3 != nil {
			diags = append(diags, fmt.Sprintf("line %d: non-numeric coordinates %q,%q,%q", i+1, rec[1], rec[2], rec[3]))
			continue
		}
		rows = append(rows, MappingRow{WordRef: rec[0], Surah: surah, Ayah: ayah, Position: position})
	}
	return rows, diags, nil
}

// ReadTranslationCSV parses an ayah translation file with columns
// (surah, ayah, text).
func ReadTranslationCSV(r io.Reader, skipHeader bool) ([]TranslationRow, []string, error) {
	records, diags, err := readRecords(r, skipHeader)
	if err != nil {
		return nil, nil, err
	}
	var rows []TranslationRow
	for i, rec := range records {
		if len(rec) < 3 {
			diags = append(diags, fmt.Sprintf("line %d: expected 3 columns, got %d", i+1, len(rec)))
			continue
		}
		surah, err1 := strconv.Atoi(rec[0])
		ayah, err2 := strconv.Atoi(rec[1])
		if err1 != nil || err2 != nil {
			diags = append(diags, fmt.Sprintf("line %d: non-numeric coordinates %q,%q", i+1, rec[0], rec[1]))
			continue
		}
		rows = append(rows, TranslationRow{Surah: surah, Ayah: ayah, Text: rec[2]})
	}
	return rows, diags, nil
}

func readRecords(r io.Reader, skipHeader bool) ([][]string, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.NewValidation("csv", err.Error())
	}
	if skipHeader && len(records) > 0 {
		records = records[1:]
	}
	return records, nil, nil
}
