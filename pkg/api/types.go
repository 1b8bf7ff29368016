package api

import (
	"github.com/uhyunpark/kwhmatch/pkg/app/core"
	"github.com/uhyunpark/kwhmatch/pkg/app/core/orderbook"
	"github.com/uhyunpark/kwhmatch/pkg/ledger"
	"github.com/uhyunpark/kwhmatch/pkg/storage"
)

// API request and response types for REST endpoints and WebSocket messages

// ==============================
// REST Types
// ==============================

// RunRequest is the payload for POST /api/v1/runs
type RunRequest struct {
	RunID  *string      `json:"run_id"` // empty or null: trades carry no run id
	Orders []core.Order `json:"orders"`
}

// Residual is what is left on the book after matching
type Residual struct {
	Bids      []core.Order           `json:"bids"` // best first
	Asks      []core.Order           `json:"asks"` // best first
	BidLevels []orderbook.PriceLevel `json:"bid_levels"`
	AskLevels []orderbook.PriceLevel `json:"ask_levels"`
}

// RunResponse is returned by POST /api/v1/runs
type RunResponse struct {
	Key       string             `json:"key"`
	RunID     *string            `json:"run_id"`
	Trades    []core.MatchRecord `json:"trades"`
	Residual  Residual           `json:"residual"`
	Summary   ledger.Summary     `json:"summary"`
	Digest    string             `json:"digest"`
	ElapsedMs float64            `json:"elapsed_ms"`
}

// RunDetail is returned by GET /api/v1/runs/{key}
type RunDetail struct {
	storage.RunMeta
	Trades []core.MatchRecord `json:"trades"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["trades", "trades:batch-7"]
}

// WSAck confirms a subscription change
type WSAck struct {
	Type     string   `json:"type"` // "subscribed" or "unsubscribed"
	Channels []string `json:"channels"`
}

// TradesUpdate is broadcast after every run that produced trades
type TradesUpdate struct {
	Type    string             `json:"type"` // "trades"
	Channel string             `json:"channel"`
	Key     string             `json:"key"`
	RunID   *string            `json:"run_id"`
	Trades  []core.MatchRecord `json:"trades"`
}
