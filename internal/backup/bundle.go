// Package backup produces and reads the export bundle shared with the web
// client: {expenses, settings, exportDate, version, checksum}.
package backup

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"moneymood/internal/core"
)

// Version is the bundle format version written by Export.
const Version = "1.0"

// Bundle is the export envelope.
type Bundle struct {
	Expenses   []core.Expense  `json:"expenses"`
	Settings   json.RawMessage `json:"settings"`
	ExportDate time.Time       `json:"exportDate"`
	Version    string          `json:"version"`
	Checksum   string          `json:"checksum,omitempty"`
}

// ImportResult reports what an import accepted.
type ImportResult struct {
	Success          bool           `json:"success"`
	ImportedExpenses int            `json:"importedExpenses"`
	SkippedExpenses  int            `json:"skippedExpenses"`
	Errors           []string       `json:"errors"`
	Expenses         []core.Expense `json:"-"`
	Settings         *core.Settings `json:"-"`
}

// Export builds a bundle stamped with now.
func Export(expenses []core.Expense, settings core.Settings, now time.Time) (Bundle, error) {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	rawSettings, err := json.Marshal(settings)
	if err != nil {
		return Bundle{}, fmt.Errorf("encode settings: %w", err)
	}
	sum, err := Checksum(expenses)
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{
		Expenses:   expenses,
		Settings:   rawSettings,
		ExportDate: now.UTC(),
		Version:    Version,
		Checksum:   sum,
	}, nil
}

// Checksum is the hex SHA-256 of the JSON-encoded expenses.
func Checksum(expenses []core.Expense) (string, error) {
	raw, err := json.Marshal(expenses)
	if err != nil {
		return "", fmt.Errorf("encode expenses: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Write encodes b as indented JSON.
func Write(w io.Writer, b Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// Read decodes a bundle.
func Read(r io.Reader) (Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Bundle{}, core.WrapError(core.KindInvalidInput, "bundle is not valid JSON", err)
	}
	return b, nil
}

// Import validates the bundle's contents. Invalid or duplicate expenses are
// skipped and reported; a checksum mismatch or unusable settings are
// reported but do not stop valid expenses from being imported. A settings
// field that is absent leaves Settings nil.
func Import(b Bundle) ImportResult {
	res := ImportResult{Errors: []string{}}

	if b.Checksum != "" {
		if sum, err := Checksum(b.Expenses); err == nil && sum != b.Checksum {
			res.Errors = append(res.Errors, "checksum mismatch: bundle may have been edited")
		}
	}

	seen := make(map[string]bool, len(b.Expenses))
	for i, e := range b.Expenses {
		if err := e.Validate(); err != nil {
			res.SkippedExpenses++
			res.Errors = append(res.Errors, fmt.Sprintf("expense %d: %v", i, err))
			continue
		}
		if seen[e.ID] {
			res.SkippedExpenses++
			res.Errors = append(res.Errors, fmt.Sprintf("expense %d: duplicate id %s", i, e.ID))
			continue
		}
		seen[e.ID] = true
		res.Expenses = append(res.Expenses, e)
	}
	res.ImportedExpenses = len(res.Expenses)

	if len(b.Settings) > 0 && !bytes.Equal(bytes.TrimSpace(b.Settings), []byte("null")) {
		s, err := core.MergeSettings(b.Settings)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("settings: %v", err))
		} else {
			res.Settings = &s
		}
	}

	res.Success = res.ImportedExpenses > 0 || res.Settings != nil || (len(b.Expenses) == 0 && len(res.Errors) == 0)
	return res
}
