package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrEmptySheet is returned when a statement decodes to no rows at all.
var ErrEmptySheet = errors.New("no data found in sheet")

// Legacy workbook read caps; 256 columns is the BIFF8 limit.
const (
	maxXLSRows = 100000
	maxXLSCols = 256
)

type Format string

const (
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
	zipMagic = []byte("PK\x03\x04")
)

// DetectFormat looks at the file signature first and the extension second.
func DetectFormat(data []byte, filename string) Format {
	switch {
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		return FormatXLS
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	return FormatCSV
}

// ReadGrid decodes the first sheet of a statement into row-major strings.
func ReadGrid(data []byte, format Format) ([][]string, error) {
	var (
		grid [][]string
		err  error
	)
	switch format {
	case FormatXLS:
		grid, err = readXLS(data)
	case FormatXLSX:
		grid, err = readXLSX(data)
	default:
		grid, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, ErrEmptySheet
	}
	return grid, nil
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "cp1252")
	if err != nil {
		return nil, fmt.Errorf("error creating workbook: %w", err)
	}
	if workbook == nil {
		return nil, fmt.Errorf("no workbook stream in file")
	}
	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("excel file is empty")
	}
	return xlsRows(sheet, maxXLSRows), nil
}

// xlsRows reads one sheet only; ReadAllCells would append every sheet.
func xlsRows(sheet *xls.WorkSheet, limit int) [][]string {
	n := int(sheet.MaxRow) + 1
	if n > limit {
		n = limit
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		// rows built from bare cells carry no column bounds
		width := row.LastCol()
		if width == 0 {
			width = maxXLSCols
		}
		cells := make([]string, width)
		for j := range cells {
			cells[j] = row.Col(j)
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		rows = append(rows, cells)
	}
	return rows
}

// xlsRow returns nil for rows the sheet never wrote; WorkSheet.Row panics on those.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}
	// Raw values keep date cells as day serials instead of their display format.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

// sniffDelimiter picks the separator that shows up most on the first lines.
func sniffDelimiter(data []byte) rune {
	lines := bytes.SplitN(data, []byte("\n"), 20)
	counts := map[rune]int{}
	for _, line := range lines {
		for _, d := range []rune{',', ';', '\t', '|'} {
			counts[d] += bytes.Count(line, []byte(string(d)))
		}
	}
	best := ','
	for _, d := range []rune{';', '\t', '|'} {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}
