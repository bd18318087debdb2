package backup

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"moneymood/internal/core"
)

func record(id string) core.Expense {
	return core.Expense{
		ID: id, Amount: 10, Currency: "USD", ConvertedAmount: 1492.54, Category: core.Food,
		Memo: "lunch", Date: core.NewDate(2025, 1, 2), ExchangeRate: 149.254,
		CreatedAt: time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestExportRoundTrip(t *testing.T) {
	now := time.Date(2025, 2, 1, 8, 30, 0, 0, time.UTC)
	settings := core.DefaultSettings()
	settings.Theme = core.ThemeDark

	b, err := Export([]core.Expense{record("a"), record("b")}, settings, now)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, b); err != nil {
		t.Fatalf("write: %v", err)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	for _, k := range []string{"expenses", "settings", "exportDate", "version", "checksum"} {
		if _, ok := envelope[k]; !ok {
			t.Fatalf("missing %q in %s", k, buf.String())
		}
	}
	if string(envelope["exportDate"]) != `"2025-02-01T08:30:00Z"` {
		t.Fatalf("unexpected exportDate %s", envelope["exportDate"])
	}

	back, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	res := Import(back)
	if !res.Success || res.ImportedExpenses != 2 || res.SkippedExpenses != 0 || len(res.Errors) != 0 {
		t.Fatalf("unexpected import result %+v", res)
	}
	if res.Expenses[0] != record("a") {
		t.Fatalf("expense changed across round trip: %+v", res.Expenses[0])
	}
	if res.Settings == nil || res.Settings.Theme != core.ThemeDark {
		t.Fatalf("settings not restored: %+v", res.Settings)
	}
}

func TestImportSkipsInvalidAndDuplicates(t *testing.T) {
	bad := record("c")
	bad.Currency = "XXX"
	b := Bundle{
		Expenses: []core.Expense{record("a"), bad, record("a")},
		Version:  Version,
	}

	res := Import(b)
	if !res.Success || res.ImportedExpenses != 1 || res.SkippedExpenses != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Errors) != 2 || !strings.Contains(res.Errors[1], "duplicate") {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if res.Settings != nil {
		t.Fatalf("absent settings must stay nil")
	}
}

func TestImportChecksumMismatch(t *testing.T) {
	b, err := Export([]core.Expense{record("a")}, core.DefaultSettings(), time.Now())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	b.Expenses[0].ConvertedAmount = 1
	res := Import(b)
	if res.ImportedExpenses != 1 || len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "checksum") {
		t.Fatalf("expected checksum warning, got %+v", res)
	}
}

func TestImportRejectsBadSettingsAndJSON(t *testing.T) {
	res := Import(Bundle{Settings: json.RawMessage(`"dark"`)})
	if res.Success || len(res.Errors) != 1 {
		t.Fatalf("expected failed import, got %+v", res)
	}

	if _, err := Read(strings.NewReader("{nope")); core.KindOf(err) != core.KindInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
