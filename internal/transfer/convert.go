package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Batch holds the records that survived conversion, in file order.
type Batch struct {
	Accounts   []core.Account
	Categories []core.Category
	Operations []core.Operation
}

// Counts is a per-section tally.
type Counts struct {
	Accounts   int
	Categories int
	Operations int
}

func (c Counts) Total() int {
	return c.Accounts + c.Categories + c.Operations
}

func (c *Counts) add(section string, n int) {
	switch section {
	case SectionAccounts:
		c.Accounts += n
	case SectionCategories:
		c.Categories += n
	case SectionOperations:
		c.Operations += n
	}
}

// Diagnostic explains why one record was skipped. Index is the record's
// position in its section, or -1 when the whole section is unusable.
type Diagnostic struct {
	Section string
	Index   int
	ID      int64
	Reason  string
	Err     error
}

func (d Diagnostic) String() string {
	if d.Index < 0 {
		return fmt.Sprintf("%s: %s", d.Section, d.Reason)
	}
	if d.ID != 0 {
		return fmt.Sprintf("%s[%d] (id %d): %s", d.Section, d.Index, d.ID, d.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", d.Section, d.Index, d.Reason)
}

// Result is the outcome of converting one file.
type Result struct {
	Batch       Batch
	Found       Counts
	Diagnostics []Diagnostic

	// file positions of the Batch records, per section
	positions map[string][]int
}

// position maps the i-th converted record of section back to its index in the file.
func (r Result) position(section string, i int) int {
	if p := r.positions[section]; i < len(p) {
		return p[i]
	}
	return i
}

func (r *Result) keep(section string, index int) {
	if r.positions == nil {
		r.positions = make(map[string][]int, len(sections))
	}
	r.positions[section] = append(r.positions[section], index)
}

// Validate makes sure every section key is present. Missing or null
// sections become empty sequences.
func Validate(tree Tree) Tree {
	if tree == nil {
		tree = Tree{}
	}
	for _, s := range sections {
		if v, ok := tree[s]; !ok || v == nil {
			tree[s] = []any{}
		}
	}
	return tree
}

// Convert types the records of a validated tree. Malformed records are
// skipped and reported; conversion itself never fails.
func Convert(tree Tree) Result {
	var res Result
	inFile := make(map[int64]core.OperationType)

	for i, raw := range records(tree, SectionAccounts, &res) {
		a, err := toAccount(raw)
		if err != nil {
			res.skip(SectionAccounts, i, raw, err)
			continue
		}
		res.Batch.Accounts = append(res.Batch.Accounts, a)
		res.keep(SectionAccounts, i)
	}

	for i, raw := range records(tree, SectionCategories, &res) {
		c, err := toCategory(raw)
		if err != nil {
			res.skip(SectionCategories, i, raw, err)
			continue
		}
		inFile[c.ID] = c.Type
		res.Batch.Categories = append(res.Batch.Categories, c)
		res.keep(SectionCategories, i)
	}

	for i, raw := range records(tree, SectionOperations, &res) {
		op, err := toOperation(raw)
		if err == nil && op.CategoryID != nil {
			if t, ok := inFile[*op.CategoryID]; ok && t != op.Type {
				err = fmt.Errorf("%w: category %d is %s, operation is %s",
					core.ErrCategoryTypeMismatch, *op.CategoryID, t, op.Type)
			}
		}
		if err != nil {
			res.skip(SectionOperations, i, raw, err)
			continue
		}
		res.Batch.Operations = append(res.Batch.Operations, op)
		res.keep(SectionOperations, i)
	}
	return res
}

func (r *Result) skip(section string, index int, raw any, err error) {
	d := Diagnostic{Section: section, Index: index, Reason: err.Error(), Err: err}
	if m, ok := raw.(map[string]any); ok {
		if id, err := toInt(m["id"]); err == nil {
			d.ID = id
		}
	}
	r.Diagnostics = append(r.Diagnostics, d)
}

func records(tree Tree, section string, res *Result) []any {
	list, ok := tree[section].([]any)
	if !ok {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Section: section,
			Index:   -1,
			Reason:  fmt.Sprintf("expected a list, got %T", tree[section]),
			Err:     core.ErrMalformedRecord,
		})
		return nil
	}
	res.Found.add(section, len(list))
	return list
}

func toAccount(raw any) (core.Account, error) {
	m, err := asRecord(raw)
	if err != nil {
		return core.Account{}, err
	}
	id, err := idField(m, "id")
	if err != nil {
		return core.Account{}, err
	}
	name, err := nameField(m)
	if err != nil {
		return core.Account{}, err
	}
	balance, err := decimalField(m, "balance")
	if err != nil {
		return core.Account{}, err
	}
	return core.Account{ID: id, Name: name, Balance: balance}, nil
}

func toCategory(raw any) (core.Category, error) {
	m, err := asRecord(raw)
	if err != nil {
		return core.Category{}, err
	}
	id, err := idField(m, "id")
	if err != nil {
		return core.Category{}, err
	}
	t, err := typeField(m)
	if err != nil {
		return core.Category{}, err
	}
	name, err := nameField(m)
	if err != nil {
		return core.Category{}, err
	}
	return core.Category{ID: id, Type: t, Name: name}, nil
}

func toOperation(raw any) (core.Operation, error) {
	m, err := asRecord(raw)
	if err != nil {
		return core.Operation{}, err
	}
	id, err := idField(m, "id")
	if err != nil {
		return core.Operation{}, err
	}
	t, err := typeField(m)
	if err != nil {
		return core.Operation{}, err
	}
	// older exports name the account reference bank_account_id
	accountKey := "account_id"
	if _, ok := m[accountKey]; !ok {
		accountKey = "bank_account_id"
	}
	accountID, err := idField(m, accountKey)
	if err != nil {
		return core.Operation{}, err
	}
	amount, err := decimalField(m, "amount")
	if err != nil {
		return core.Operation{}, err
	}
	if !amount.IsPositive() {
		return core.Operation{}, fmt.Errorf("%w: field amount: must be positive, got %s", core.ErrMalformedRecord, amount)
	}
	date, err := dateField(m, "date")
	if err != nil {
		return core.Operation{}, err
	}

	op := core.Operation{ID: id, Type: t, AccountID: accountID, Amount: amount, Date: date}
	// an empty description is the same as none, whatever the format
	if v, ok := m["description"]; ok && v != nil && toText(v) != "" {
		op.Description = core.StringPtr(toText(v))
	}
	if v, ok := m["category_id"]; ok && v != nil && v != "" {
		cid, err := toInt(v)
		if err != nil {
			return core.Operation{}, fieldError("category_id", err)
		}
		if cid < 1 {
			return core.Operation{}, fieldError("category_id", fmt.Errorf("must be at least 1, got %d", cid))
		}
		op.CategoryID = core.Int64Ptr(cid)
	}
	return op, nil
}

func asRecord(raw any) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a mapping, got %T", core.ErrMalformedRecord, raw)
	}
	return m, nil
}

func fieldError(field string, err error) error {
	return fmt.Errorf("%w: field %s: %v", core.ErrMalformedRecord, field, err)
}

func required(m map[string]any, field string) (any, error) {
	v, ok := m[field]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: missing field %s", core.ErrMalformedRecord, field)
	}
	return v, nil
}

func intField(m map[string]any, field string) (int64, error) {
	v, err := required(m, field)
	if err != nil {
		return 0, err
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fieldError(field, err)
	}
	return n, nil
}

// idField reads a record id or reference. Ids start at 1.
func idField(m map[string]any, field string) (int64, error) {
	n, err := intField(m, field)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fieldError(field, fmt.Errorf("must be at least 1, got %d", n))
	}
	return n, nil
}

func decimalField(m map[string]any, field string) (decimal.Decimal, error) {
	v, err := required(m, field)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, fieldError(field, err)
	}
	return d, nil
}

func dateField(m map[string]any, field string) (core.Date, error) {
	v, err := required(m, field)
	if err != nil {
		return core.Date{}, err
	}
	s, ok := v.(string)
	if !ok {
		return core.Date{}, fieldError(field, fmt.Errorf("expected YYYY-MM-DD text, got %T", v))
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fieldError(field, err)
	}
	return d, nil
}

func typeField(m map[string]any) (core.OperationType, error) {
	v, err := required(m, "type")
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldError("type", fmt.Errorf("expected text, got %T", v))
	}
	t, err := core.ParseOperationType(s)
	if err != nil {
		return "", fieldError("type", err)
	}
	return t, nil
}

func nameField(m map[string]any) (string, error) {
	v, err := required(m, "name")
	if err != nil {
		return "", err
	}
	name := toText(v)
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: field name: %w", core.ErrMalformedRecord, core.ErrEmptyName)
	}
	return name, nil
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return wholeDecimal(string(n))
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		return wholeDecimal(s)
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func wholeDecimal(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return d.IntPart(), nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(string(n))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%q is not a number", n)
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, fmt.Errorf("expected a number, got %T", v)
	}
}

func toText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// IsMalformed reports whether d was caused by unusable input rather than
// by the state of the target stores.
func (d Diagnostic) IsMalformed() bool {
	return errors.Is(d.Err, core.ErrMalformedRecord) || errors.Is(d.Err, core.ErrCategoryTypeMismatch)
}
