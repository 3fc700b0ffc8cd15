package transfer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"ledger/internal/core"
)

// Snapshot is the data written by an export.
type Snapshot struct {
	Accounts   []core.Account
	Categories []core.Category
	Operations []core.Operation
}

// Exporter writes a full snapshot in one format.
type Exporter interface {
	Export(w io.Writer, s Snapshot) error
}

func ExporterFor(f Format) (Exporter, error) {
	switch f {
	case JSON:
		return JSONExporter{}, nil
	case CSV:
		return CSVExporter{}, nil
	case YAML:
		return YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// number renders a decimal as a bare numeric literal in both JSON and YAML.
type number string

func newNumber(d decimal.Decimal) number {
	return number(d.String())
}

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

func (n number) MarshalYAML() (any, error) {
	tag := "!!float"
	if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		tag = "!!int"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(n)}, nil
}

type wireAccount struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Balance number `json:"balance" yaml:"balance"`
}

type wireCategory struct {
	ID   int64  `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

type wireOperation struct {
	ID          int64   `json:"id" yaml:"id"`
	Type        string  `json:"type" yaml:"type"`
	AccountID   int64   `json:"account_id" yaml:"account_id"`
	Amount      number  `json:"amount" yaml:"amount"`
	Date        string  `json:"date" yaml:"date"`
	Description *string `json:"description" yaml:"description"`
	CategoryID  *int64  `json:"category_id" yaml:"category_id"`
}

type wireLedger struct {
	Accounts   []wireAccount   `json:"accounts" yaml:"accounts"`
	Categories []wireCategory  `json:"categories" yaml:"categories"`
	Operations []wireOperation `json:"operations" yaml:"operations"`
}

func toWire(s Snapshot) wireLedger {
	w := wireLedger{
		Accounts:   make([]wireAccount, 0, len(s.Accounts)),
		Categories: make([]wireCategory, 0, len(s.Categories)),
		Operations: make([]wireOperation, 0, len(s.Operations)),
	}
	for _, a := range s.Accounts {
		w.Accounts = append(w.Accounts, wireAccount{ID: a.ID, Name: a.Name, Balance: newNumber(a.Balance)})
	}
	for _, c := range s.Categories {
		w.Categories = append(w.Categories, wireCategory{ID: c.ID, Type: c.Type.String(), Name: c.Name})
	}
	for _, op := range s.Operations {
		w.Operations = append(w.Operations, wireOperation{
			ID:          op.ID,
			Type:        op.Type.String(),
			AccountID:   op.AccountID,
			Amount:      newNumber(op.Amount),
			Date:        op.Date.String(),
			Description: op.Description,
			CategoryID:  op.CategoryID,
		})
	}
	return w
}

type JSONExporter struct{}

func (JSONExporter) Export(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(toWire(s)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

type YAMLExporter struct{}

func (YAMLExporter) Export(w io.Writer, s Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toWire(s)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

type CSVExporter struct{}

func (CSVExporter) Export(w io.Writer, s Snapshot) error {
	cw := csv.NewWriter(w)

	rows := [][]string{{markerAccounts}, accountColumns}
	for _, a := range s.Accounts {
		rows = append(rows, []string{formatID(a.ID), a.Name, a.Balance.String()})
	}
	rows = append(rows, []string{markerCategories}, categoryColumns)
	for _, c := range s.Categories {
		rows = append(rows, []string{formatID(c.ID), c.Type.String(), c.Name})
	}
	rows = append(rows, []string{markerOperations}, operationColumns)
	for _, op := range s.Operations {
		category := ""
		if op.CategoryID != nil {
			category = formatID(*op.CategoryID)
		}
		rows = append(rows, []string{
			formatID(op.ID),
			op.Type.String(),
			formatID(op.AccountID),
			op.Amount.String(),
			op.Date.String(),
			op.DescriptionOr(""),
			category,
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ExportFile writes s to path in format f, replacing any existing file.
func ExportFile(path string, f Format, s Snapshot) (err error) {
	exp, err := ExporterFor(f)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export %s: %w: %w", path, core.ErrIO, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export %s: %w: %w", path, core.ErrIO, cerr)
		}
	}()

	if err := exp.Export(file, s); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

// ExportAll writes s once per format into dir as stem.json, stem.csv and
// stem.yaml, and returns the paths written.
func ExportAll(ctx context.Context, dir, stem string, s Snapshot) ([]string, error) {
	paths := make([]string, len(Formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range Formats {
		i, f := i, f
		paths[i] = filepath.Join(dir, stem+f.Extension())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return ExportFile(paths[i], f, s)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
