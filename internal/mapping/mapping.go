// Package mapping разбирает загружаемый администратором файл соответствия
// сотрудников и учётных данных.
package mapping

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RequiredColumns — обязательные колонки файла соответствия.
// Лишние колонки игнорируются, порядок колонок в файле не важен.
var RequiredColumns = []string{"Username", "Password", "Role", "Employee Name", "Distributors"}

// SchemaError сообщает об отсутствии обязательных колонок.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns %v, need: %v", e.Missing, RequiredColumns)
}

// Row — одна строка файла соответствия. Distributors хранится как есть,
// в виде списка через запятую.
type Row struct {
	Username     string
	Password     string
	Role         string
	EmployeeName string
	Distributors string
}

// Parse разбирает файл соответствия. Формат определяется по расширению имени файла:
// поддерживаются .csv и .xlsx.
func Parse(filename string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xlsx":
		return parseXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(filename))
	}
}

func parseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rowsFromCells(records)
}

func parseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	cells, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}

	return rowsFromCells(cells)
}

func rowsFromCells(cells [][]string) ([]Row, error) {
	if len(cells) == 0 {
		return nil, &SchemaError{Missing: RequiredColumns}
	}

	colIndex := make(map[string]int, len(cells[0]))
	for i, name := range cells[0] {
		colIndex[name] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	cell := func(row []string, col string) string {
		i := colIndex[col]
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, raw := range cells[1:] {
		row := Row{
			Username:     cell(raw, "Username"),
			Password:     cell(raw, "Password"),
			Role:         cell(raw, "Role"),
			EmployeeName: cell(raw, "Employee Name"),
			Distributors: cell(raw, "Distributors"),
		}

		// Полностью пустые строки в конце файла не считаются данными.
		if row.Username == "" && row.Password == "" && row.Role == "" &&
			row.EmployeeName == "" && row.Distributors == "" {
			continue
		}

		rows = append(rows, row)
	}

	return rows, nil
}
