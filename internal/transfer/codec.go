package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"ledger/internal/core"
)

// Section names, shared by the Tree keys and every wire format.
const (
	SectionAccounts   = "accounts"
	SectionCategories = "categories"
	SectionOperations = "operations"
)

var sections = []string{SectionAccounts, SectionCategories, SectionOperations}

// Tree is the format-neutral parse result: a mapping from section name to
// a sequence of field maps. Numbers are json.Number, whatever the source.
type Tree map[string]any

// Codec holds the format-specific import steps.
type Codec interface {
	Read(path string) ([]byte, error)
	Parse(raw []byte) (Tree, error)
}

// CodecFor returns the codec of f.
func CodecFor(f Format) (Codec, error) {
	switch f {
	case JSON:
		return jsonCodec{}, nil
	case CSV:
		return csvCodec{}, nil
	case YAML:
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

type fileReader struct{}

func (fileReader) Read(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", path, core.ErrIO, err)
	}
	return raw, nil
}

type jsonCodec struct{ fileReader }

func (jsonCodec) Parse(raw []byte) (Tree, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Tree{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse json: %w: %v", core.ErrMalformedRecord, err)
	}
	return asTree(doc)
}

type yamlCodec struct{ fileReader }

// Parse decodes through yaml.Node so numeric scalars keep their exact text.
func (yamlCodec) Parse(raw []byte) (Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w: %v", core.ErrMalformedRecord, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Tree{}, nil
	}
	return asTree(fromNode(doc.Content[0]))
}

func fromNode(n *yaml.Node) any {
	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = fromNode(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			s = append(s, fromNode(c))
		}
		return s
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil
		case "!!int", "!!float":
			return json.Number(n.Value)
		case "!!bool":
			b, err := strconv.ParseBool(n.Value)
			if err != nil {
				return n.Value
			}
			return b
		default:
			return n.Value
		}
	default:
		return nil
	}
}

func asTree(doc any) (Tree, error) {
	switch v := doc.(type) {
	case nil:
		return Tree{}, nil
	case map[string]any:
		return Tree(v), nil
	default:
		return nil, fmt.Errorf("%w: top level must be a mapping, got %T", core.ErrMalformedRecord, doc)
	}
}

// CSV layout: a marker line opens each section, followed by a header row
// (first cell "id") and positional rows.
const (
	markerAccounts   = "=== ACCOUNTS ==="
	markerCategories = "=== CATEGORIES ==="
	markerOperations = "=== OPERATIONS ==="
)

var (
	accountColumns   = []string{"id", "name", "balance"}
	categoryColumns  = []string{"id", "type", "name"}
	operationColumns = []string{"id", "type", "account_id", "amount", "date", "description", "category_id"}
)

// minimum column counts; category_id is optional for operations
var minColumns = map[string]int{
	SectionAccounts:   len(accountColumns),
	SectionCategories: len(categoryColumns),
	SectionOperations: len(operationColumns) - 1,
}

type csvCodec struct{ fileReader }

// Parse keeps every cell as a string; Convert does the typing. Rows that
// are too short for their section, or that appear before any marker, are
// dropped.
func (csvCodec) Parse(raw []byte) (Tree, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	tree := Tree{}
	for _, s := range sections {
		tree[s] = []any{}
	}

	current := ""
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w: %v", core.ErrMalformedRecord, err)
		}

		if section, ok := sectionFromMarker(record); ok {
			current = section
			continue
		}
		if current == "" || strings.TrimSpace(record[0]) == "id" {
			continue
		}
		if len(record) < minColumns[current] {
			continue
		}
		tree[current] = append(tree[current].([]any), csvRow(current, record))
	}
	return tree, nil
}

func sectionFromMarker(record []string) (string, bool) {
	if len(record) != 1 {
		return "", false
	}
	switch line := strings.TrimSpace(record[0]); {
	case strings.HasPrefix(line, markerAccounts):
		return SectionAccounts, true
	case strings.HasPrefix(line, markerCategories):
		return SectionCategories, true
	case strings.HasPrefix(line, markerOperations):
		return SectionOperations, true
	}
	return "", false
}

func csvRow(section string, record []string) map[string]any {
	var columns []string
	switch section {
	case SectionAccounts:
		columns = accountColumns
	case SectionCategories:
		columns = categoryColumns
	default:
		columns = operationColumns
	}

	row := make(map[string]any, len(columns))
	for i, name := range columns {
		if i >= len(record) {
			break
		}
		cell := record[i]
		if name != "name" && name != "description" {
			cell = strings.TrimSpace(cell)
		}
		// empty optional cells mean absent
		if cell == "" && (name == "description" || name == "category_id") {
			row[name] = nil
			continue
		}
		row[name] = cell
	}
	return row
}
