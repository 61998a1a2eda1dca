// Package sheetstore содержит реализацию доступа к данным в общей Google-таблице.
package sheetstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Имена листов общей таблицы. Заявки пишутся в первый лист,
// учётные записи живут в отдельном листе "users".
const (
	WorksheetOrders = "Sheet1"
	WorksheetUsers  = "users"
)

// OrdersHeader задаёт порядок колонок листа заявок.
var OrdersHeader = []string{
	"Timestamp", "Order Date", "Employee Name", "Distributor", "Shop Name",
	"Margin", "Beat Area", "SKU", "QTY", "SOH",
	"Photo Link", "Remarks", "Last Visit Date", "No of Visits",
}

// UsersHeader задаёт порядок колонок листа пользователей.
var UsersHeader = []string{"Username", "Password", "Role", "Employee Name", "Distributors"}

// ErrSpreadsheetUnavailable возвращается, если общая таблица недоступна при старте.
var ErrSpreadsheetUnavailable = errors.New("spreadsheet unavailable")

// Store предоставляет доступ к общей Google-таблице.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
}

// New создаёт хранилище и проверяет доступность таблицы.
func New(ctx context.Context, spreadsheetID, credentialsFile string) (*Store, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	s := NewWithService(svc, spreadsheetID)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.svc.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId").Context(pingCtx).Do(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpreadsheetUnavailable, err)
	}

	return s, nil
}

// NewWithService создаёт хранилище поверх готового клиента Sheets API.
func NewWithService(svc *sheets.Service, spreadsheetID string) *Store {
	return &Store{svc: svc, spreadsheetID: spreadsheetID}
}

func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраим только временные ошибки API: лимит запросов и недоступность бэкенда.
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == 429 || apiErr.Code == 500 || apiErr.Code == 503 {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// ReadAllRows возвращает все строки листа в виде отображений "заголовок -> значение".
// Первая строка листа считается заголовком; недостающие ячейки дополняются пустыми строками.
func (s *Store) ReadAllRows(ctx context.Context, worksheet string) ([]map[string]string, error) {
	var resp *sheets.ValueRange
	err := s.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = s.svc.Spreadsheets.Values.Get(s.spreadsheetID, worksheet).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", worksheet, err)
	}

	return rowsToRecords(resp.Values), nil
}

func rowsToRecords(values [][]any) []map[string]string {
	if len(values) < 2 {
		return nil
	}

	header := make([]string, 0, len(values[0]))
	for _, cell := range values[0] {
		header = append(header, fmt.Sprint(cell))
	}

	records := make([]map[string]string, 0, len(values)-1)
	for _, row := range values[1:] {
		record := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = fmt.Sprint(row[i])
			} else {
				record[col] = ""
			}
		}
		records = append(records, record)
	}

	return records
}

// AppendRow добавляет одну строку в конец листа.
func (s *Store) AppendRow(ctx context.Context, worksheet string, values []any) error {
	vr := &sheets.ValueRange{Values: [][]any{values}}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, worksheet, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", worksheet, err)
	}

	return nil
}

// Clear удаляет все строки листа, включая заголовок.
func (s *Store) Clear(ctx context.Context, worksheet string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, worksheet, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clear worksheet %s: %w", worksheet, err)
	}

	return nil
}

// EnsureWorksheet создаёт лист с заголовком, если он отсутствует в таблице.
func (s *Store) EnsureWorksheet(ctx context.Context, worksheet string, header []string) error {
	var spreadsheet *sheets.Spreadsheet
	err := s.withRetry(ctx, func() error {
		var callErr error
		spreadsheet, callErr = s.svc.Spreadsheets.Get(s.spreadsheetID).
			Fields("sheets.properties.title").
			Context(ctx).
			Do()
		return callErr
	})
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}

	for _, sh := range spreadsheet.Sheets {
		if sh.Properties != nil && sh.Properties.Title == worksheet {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: worksheet},
				},
			},
		},
	}

	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add worksheet %s: %w", worksheet, err)
	}

	headerRow := make([]any, 0, len(header))
	for _, col := range header {
		headerRow = append(headerRow, col)
	}

	return s.AppendRow(ctx, worksheet, headerRow)
}
