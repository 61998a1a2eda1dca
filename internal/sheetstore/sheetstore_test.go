package sheetstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) (*Store, func()) {
	t.Helper()

	ts := httptest.NewServer(handler)

	svc, err := sheets.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(ts.URL),
	)
	if err != nil {
		ts.Close()
		t.Fatalf("new sheets service: %v", err)
	}

	return NewWithService(svc, "test-spreadsheet"), ts.Close
}

func TestReadAllRows_MapsHeaderToValues(t *testing.T) {
	store, closeFn := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if !strings.Contains(r.URL.Path, "/values/users") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		resp := sheets.ValueRange{
			Values: [][]any{
				{"Username", "Password", "Role", "Employee Name", "Distributors"},
				{"asha", "secret", "employee", "Asha", "D1, D2"},
				{"short"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
	})
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	records, err := store.ReadAllRows(ctx, WorksheetUsers)
	if err != nil {
		t.Fatalf("ReadAllRows error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0]["Username"] != "asha" || records[0]["Distributors"] != "D1, D2" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1]["Username"] != "short" || records[1]["Password"] != "" {
		t.Fatalf("short row must be padded with empty cells: %+v", records[1])
	}
}

func TestReadAllRows_EmptyWorksheet(t *testing.T) {
	store, closeFn := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sheets.ValueRange{}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	})
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	records, err := store.ReadAllRows(ctx, WorksheetOrders)
	if err != nil {
		t.Fatalf("ReadAllRows error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}

func TestAppendRow_SendsValues(t *testing.T) {
	var gotBody sheets.ValueRange

	store, closeFn := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if !strings.Contains(r.URL.Path, ":append") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := store.AppendRow(ctx, WorksheetUsers, []any{"asha", "secret"}); err != nil {
		t.Fatalf("AppendRow error: %v", err)
	}

	if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != 2 {
		t.Fatalf("unexpected appended values: %+v", gotBody.Values)
	}
	if gotBody.Values[0][0] != "asha" {
		t.Fatalf("first cell = %v, want asha", gotBody.Values[0][0])
	}
}

func TestRowsToRecords_HeaderOnly(t *testing.T) {
	records := rowsToRecords([][]any{{"Username", "Password"}})
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}
