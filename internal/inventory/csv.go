package inventory

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/elkriver/inventory-cli/internal/model"
)

// ParseListingsCSV reads scraped inventory rows from a CSV export.
// Column order is resolved from the header, so extra columns and
// reordered files parse fine. Rows missing a manufacturer are skipped.
func ParseListingsCSV(csvPath string) ([]model.Listing, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrap(err, "inventory: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "inventory: read csv")
	}

	if len(records) < 2 {
		return nil, eris.New("inventory: csv has no data rows")
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"manufacturer", "model", "price"}
	for _, col := range requiredCols {
		if _, ok := colIdx[col]; !ok {
			return nil, eris.Errorf("inventory: missing required column %q", col)
		}
	}

	var listings []model.Listing
	for _, row := range records[1:] {
		manufacturer := getCol(row, colIdx, "manufacturer")
		if manufacturer == "" {
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(getCol(row, colIdx, "price")), 64)
		if err != nil {
			continue
		}

		listings = append(listings, model.Listing{
			Section:      getCol(row, colIdx, "section"),
			Manufacturer: manufacturer,
			Model:        getCol(row, colIdx, "model"),
			Caliber:      getCol(row, colIdx, "caliber"),
			Price:        price,
			Description:  getCol(row, colIdx, "description"),
			Condition:    model.Condition(getCol(row, colIdx, "condition")),
		})
	}

	if len(listings) == 0 {
		return nil, eris.New("inventory: no usable rows in csv")
	}
	return listings, nil
}

func getCol(row []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
