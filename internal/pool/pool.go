package pool

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/asngen/internal/ir"
)

// Format identifies a pool file format.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// FormatFor picks the format from a file name's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv", ".txt", ".dat":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported pool file extension %q", filepath.Ext(path))
	}
}

// LoadFile reads the pool at path.
func LoadFile(path string) ([]ir.Item, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pool: %w", err)
	}
	items, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Parse decodes pool data in the given format.
func Parse(data []byte, format Format) ([]ir.Item, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatTable:
		return parseTable(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unknown pool format %q", format)
	}
}

// Normalize returns a copy of raw with lower-cased keys and trimmed,
// NFC-normalized values. When two keys fold to the same name the
// later one wins.
func Normalize(raw map[string]string) ir.Item {
	out := make(ir.Item, len(raw))
	for k, v := range raw {
		out[normalizeKey(k)] = normalizeValue(v)
	}
	return out
}

func normalizeKey(k string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(k)))
}

func normalizeValue(v string) string {
	return norm.NFC.String(strings.TrimSpace(v))
}

func parseYAML(data []byte) ([]ir.Item, error) {
	var doc []map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml pool: %w", err)
	}

	items := make([]ir.Item, 0, len(doc))
	for i, entry := range doc {
		raw := make(map[string]string, len(entry))
		for k, node := range entry {
			if node.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("item %d: key %q: value must be a scalar", i, k)
			}
			raw[k] = scalarText(node)
		}
		items = append(items, Normalize(raw))
	}
	return items, nil
}

// scalarText renders a scalar as written. YAML null becomes the empty
// string, which attribute resolution treats as absent.
func scalarText(node yaml.Node) string {
	if node.Tag == "!!null" {
		return ""
	}
	return node.Value
}

func parseTable(r io.Reader) ([]ir.Item, error) {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.Comment = '#'
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []ir.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse table header: %w", err)
	}
	for i, h := range header {
		header[i] = normalizeKey(h)
		if header[i] == "" {
			return nil, fmt.Errorf("parse table header: column %d has no name", i+1)
		}
	}

	items := make([]ir.Item, 0)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse table: %w", err)
		}
		item := make(ir.Item, len(header))
		for i, col := range header {
			item[col] = normalizeValue(record[i])
		}
		items = append(items, item)
	}
	return items, nil
}
