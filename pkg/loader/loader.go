// Package loader reads order files into validated core orders.
//
// Loading is all-or-nothing: the first malformed or invalid order aborts the
// whole file, so a partial order set never reaches a book.
package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

var ErrUnsupportedExtension = errors.New("unsupported extension")

// ParseError locates a field that could not be parsed. Line is the 1-based
// record number (CSV header excluded); zero when unknown.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("record %d: %s: %v", e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// csvColumns is the expected header, in order.
var csvColumns = []string{"id", "tenant_id", "side", "kwh", "price", "timestamp"}

// LoadOrders reads a .csv, .json, .yaml or .yml file.
func LoadOrders(path string) ([]core.Order, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "csv", "json", "yaml", "yml":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	switch ext {
	case "csv":
		return ReadCSV(bytes.NewReader(content))
	case "json":
		return ReadJSON(bytes.NewReader(content))
	default:
		return ReadYAML(bytes.NewReader(content))
	}
}

// ReadCSV expects a header row followed by id,tenant_id,side,kwh,price,timestamp
// records. Columns are read by position.
func ReadCSV(r io.Reader) ([]core.Order, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true

	if _, err := rdr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var orders []core.Order
	for line := 1; ; line++ {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		fields := make([]string, len(csvColumns))
		for i, col := range csvColumns {
			if i >= len(rec) {
				return nil, &ParseError{Line: line, Field: col, Err: errors.New("missing column")}
			}
			fields[i] = rec[i]
		}

		o, err := ParseOrderFields(fields[0], fields[1], fields[2], fields[3], fields[4], fields[5])
		if err != nil {
			return nil, withLine(err, line)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// ReadJSON decodes an array of orders. A missing or zero remaining_kwh
// starts at kwh; a missing side is rejected.
func ReadJSON(r io.Reader) ([]core.Order, error) {
	var orders []core.Order
	if err := json.NewDecoder(r).Decode(&orders); err != nil {
		return nil, fmt.Errorf("failed to decode json orders: %w", err)
	}
	for i := range orders {
		if err := orders[i].Prepare(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return orders, nil
}

// yamlOrder keeps every field as text so YAML's implicit typing cannot turn
// a quantity into a float on the way in.
type yamlOrder struct {
	ID           string `yaml:"id"`
	TenantID     string `yaml:"tenant_id"`
	Side         string `yaml:"side"`
	Kwh          string `yaml:"kwh"`
	Price        string `yaml:"price"`
	Timestamp    string `yaml:"timestamp"`
	RemainingKwh string `yaml:"remaining_kwh"`
}

// ReadYAML decodes a sequence of order mappings.
func ReadYAML(r io.Reader) ([]core.Order, error) {
	var docs []yamlOrder
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode yaml orders: %w", err)
	}

	orders := make([]core.Order, 0, len(docs))
	for i, d := range docs {
		o, err := ParseOrderFields(d.ID, d.TenantID, d.Side, d.Kwh, d.Price, d.Timestamp)
		if err != nil {
			return nil, withLine(err, i+1)
		}
		if d.RemainingKwh != "" {
			rem, err := decimal.NewFromString(d.RemainingKwh)
			if err != nil {
				return nil, &ParseError{Line: i + 1, Field: "remaining_kwh", Err: err}
			}
			o.RemainingKwh = rem
			if err := o.Prepare(); err != nil {
				return nil, withLine(err, i+1)
			}
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// ParseOrderFields builds a prepared, validated order from its text fields.
// timestamp must be RFC3339 with a zone offset; an empty timestamp is
// rejected rather than defaulted.
func ParseOrderFields(id, tenantID, side, kwh, price, timestamp string) (core.Order, error) {
	s, err := core.ParseSide(side)
	if err != nil {
		return core.Order{}, &ParseError{Field: "side", Err: err}
	}
	q, err := decimal.NewFromString(strings.TrimSpace(kwh))
	if err != nil {
		return core.Order{}, &ParseError{Field: "kwh", Err: err}
	}
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return core.Order{}, &ParseError{Field: "price", Err: err}
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(timestamp))
	if err != nil {
		return core.Order{}, &ParseError{Field: "timestamp", Err: err}
	}

	o := core.Order{
		ID:           id,
		TenantID:     tenantID,
		Side:         s,
		Kwh:          q,
		Price:        p,
		Timestamp:    ts.UTC(),
		RemainingKwh: q,
	}
	if err := o.Prepare(); err != nil {
		return core.Order{}, err
	}
	return o, nil
}

func withLine(err error, line int) error {
	var perr *ParseError
	if errors.As(err, &perr) && perr.Line == 0 {
		perr.Line = line
		return perr
	}
	return fmt.Errorf("record %d: %w", line, err)
}
