package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return fmt.Sprintf("Side(%d)", int8(s))
	}
}

// ParseSide accepts buy/b and sell/s in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b":
		return Buy, nil
	case "sell", "s":
		return Sell, nil
	default:
		return 0, fmt.Errorf("invalid side '%s', expected buy|sell", s)
	}
}

func (s Side) MarshalText() ([]byte, error) {
	if s != Buy && s != Sell {
		return nil, fmt.Errorf("invalid side %d", int8(s))
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Order is a tenant's intent to buy or sell energy at a limit price.
// Kwh is the original size; RemainingKwh is the unfilled part and is the only
// field the matcher mutates.
type Order struct {
	ID           string          `json:"id" yaml:"id"`
	TenantID     string          `json:"tenant_id" yaml:"tenant_id"`
	Side         Side            `json:"side" yaml:"side"`
	Kwh          decimal.Decimal `json:"kwh" yaml:"kwh"`
	Price        decimal.Decimal `json:"price" yaml:"price"`
	Timestamp    time.Time       `json:"timestamp" yaml:"timestamp"`
	RemainingKwh decimal.Decimal `json:"remaining_kwh" yaml:"remaining_kwh"`
}

// MatchRecord is an executed trade. RunID is nil when the caller supplied none.
type MatchRecord struct {
	BuyOrderID  string          `json:"buy_order_id" yaml:"buy_order_id"`
	SellOrderID string          `json:"sell_order_id" yaml:"sell_order_id"`
	Kwh         decimal.Decimal `json:"kwh" yaml:"kwh"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Timestamp   time.Time       `json:"timestamp" yaml:"timestamp"`
	RunID       *string         `json:"run_id" yaml:"run_id"`
}

// Notional is kwh * price of the trade.
func (r MatchRecord) Notional() decimal.Decimal {
	return r.Kwh.Mul(r.Price)
}
