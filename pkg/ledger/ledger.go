package ledger

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"
	"gopkg.in/yaml.v3"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

// Ledger collects the trades of one or more matching passes.
type Ledger struct {
	Entries []core.MatchRecord `json:"entries"`
}

func New() *Ledger {
	return &Ledger{Entries: []core.MatchRecord{}}
}

func (l *Ledger) Append(r core.MatchRecord) {
	l.Entries = append(l.Entries, r)
}

func (l *Ledger) Extend(rows []core.MatchRecord) {
	l.Entries = append(l.Entries, rows...)
}

func (l *Ledger) Len() int { return len(l.Entries) }

// JSON renders the entries as a pretty-printed array.
func (l *Ledger) JSON() ([]byte, error) {
	entries := l.Entries
	if entries == nil {
		entries = []core.MatchRecord{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

// YAML renders the entries as a YAML sequence.
func (l *Ledger) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	entries := l.Entries
	if entries == nil {
		entries = []core.MatchRecord{}
	}
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// WriteFile writes YAML for .yaml/.yml paths and JSON otherwise. The file is
// replaced atomically, so readers never see a half-written ledger.
func (l *Ledger) WriteFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = l.YAML()
	} else {
		data, err = l.JSON()
	}
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to create ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to chmod ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

// ReadFile loads a ledger written by WriteFile.
func ReadFile(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	l := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, &l.Entries)
	} else {
		err = json.Unmarshal(data, &l.Entries)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode ledger %s: %w", path, err)
	}
	if l.Entries == nil {
		l.Entries = []core.MatchRecord{}
	}
	return l, nil
}

// Digest is the hex SHA3-256 of the compact JSON encoding of the entries.
// Timestamps are normalized to UTC first, so a ledger read back from YAML
// hashes the same as the one that was written.
func (l *Ledger) Digest() (string, error) {
	entries := make([]core.MatchRecord, len(l.Entries))
	for i, e := range l.Entries {
		e.Timestamp = e.Timestamp.UTC()
		entries[i] = e
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to encode ledger: %w", err)
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

type Summary struct {
	Trades   int             `json:"trades"`
	TotalKwh decimal.Decimal `json:"total_kwh"`
	Notional decimal.Decimal `json:"notional"`
	VWAP     decimal.Decimal `json:"vwap"` // zero when there are no trades
}

func (l *Ledger) Summary() Summary {
	s := Summary{Trades: len(l.Entries)}
	for _, e := range l.Entries {
		s.TotalKwh = s.TotalKwh.Add(e.Kwh)
		s.Notional = s.Notional.Add(e.Notional())
	}
	if s.TotalKwh.IsPositive() {
		s.VWAP = s.Notional.DivRound(s.TotalKwh, 8)
	}
	return s
}
