package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"slices"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/xuri/excelize/v2"
)

// Engine reads one spreadsheet-format file into string rows, header row first.
type Engine interface {
	Name() string
	Read(path string) ([][]string, error)
}

// Common errors for tabular engines.
var (
	ErrNoEngine = errors.New("no engine could read file")
	ErrNoSheets = errors.New("workbook has no sheets")
	ErrNotText  = errors.New("file is not valid UTF-8 text")
)

// DefaultEngines returns the engine cascade used for mirror files: xlsx first, CSV second.
func DefaultEngines() []Engine {
	return []Engine{XLSXEngine{}, CSVEngine{}}
}

// ReadRows tries each engine in order and returns the rows of the first one that succeeds.
// A missing file is reported immediately with an error wrapping fs.ErrNotExist.
func ReadRows(path string, engines ...Engine) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var result error
	for _, engine := range engines {
		rows, err := engine.Read(path)
		if err == nil {
			return rows, nil
		}
		result = multierror.Append(result, fmt.Errorf("%s: %w", engine.Name(), err))
	}

	if result == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoEngine, path)
	}

	return nil, fmt.Errorf("%w: %s: %w", ErrNoEngine, path, result)
}

// XLSXEngine reads Office Open XML workbooks. Sheet selects a sheet by name and
// falls back to the first sheet when empty or absent.
type XLSXEngine struct {
	Sheet string
}

// Name returns the engine name.
func (XLSXEngine) Name() string { return "xlsx" }

// Read returns all rows of the selected sheet as strings.
func (e XLSXEngine) Read(path string) ([][]string, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer file.Close()

	sheet := e.Sheet
	if sheet == "" || !slices.Contains(file.GetSheetList(), sheet) {
		sheet = file.GetSheetName(0)
	}
	if sheet == "" {
		return nil, ErrNoSheets
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}

	return rows, nil
}

// CSVEngine reads comma-separated text files. Binary content is rejected so a
// corrupt workbook never parses as garbage rows.
type CSVEngine struct{}

// Name returns the engine name.
func (CSVEngine) Name() string { return "csv" }

// Read returns all records of the file. Records may have differing lengths.
func (CSVEngine) Read(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, ErrNotText
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return rows, nil
}
