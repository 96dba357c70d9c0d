package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet that carries the bulk import rows.
const SheetName = "Bulk Import"

// RenderXLSX converts a rendered CSV artifact into a single-sheet workbook with identical cells.
// Every cell is written as a string so IDs and dates keep their textual form.
func RenderXLSX(csvData []byte) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(csvData))
	r.FieldsPerRecord = len(columns)

	for rowIdx := 1; ; rowIdx++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", rowIdx, err)
		}

		cells := make([]any, len(record))
		for i, v := range record {
			cells[i] = v
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := xl.SetSheetRow(SheetName, cellRef, &cells); err != nil {
			return nil, fmt.Errorf("failed to write sheet row %d: %w", rowIdx, err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
