package generator

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"siteqr/internal/models"
)

// Columns whose empty cells mean zero.
var numericColumns = map[string]bool{
	models.FieldSafeLevel:      true,
	models.FieldWarningLevel:   true,
	models.FieldDangerLevel:    true,
	models.FieldLatitude:       true,
	models.FieldLongitude:      true,
	models.FieldGeofenceRadius: true,
}

// LoadCSV reads a monitoring sites export. The header row names the columns;
// every other row becomes one SiteRecord. Non-empty cells stay strings for the
// codec to coerce. Empty cells default to 0 for numeric columns, true for
// is_active and "" otherwise.
func LoadCSV(r io.Reader) ([]models.SiteRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: missing header row")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var records []models.SiteRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		rec := make(models.SiteRecord, len(header))
		for i, col := range header {
			rec[col] = cellValue(col, row[i])
		}
		records = append(records, rec)
	}
	return records, nil
}

func cellValue(col, cell string) any {
	cell = strings.TrimSpace(cell)
	if cell != "" {
		return cell
	}
	switch {
	case numericColumns[col]:
		return 0.0
	case col == models.FieldIsActive:
		return true
	}
	return ""
}
