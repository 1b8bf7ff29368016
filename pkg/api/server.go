package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
	"github.com/uhyunpark/kwhmatch/pkg/service"
	"github.com/uhyunpark/kwhmatch/pkg/storage"
)

const (
	maxBodyBytes     = 10 << 20
	defaultRunsLimit = 50
	maxRunsLimit     = 1000
)

// Server handles REST API and WebSocket connections
type Server struct {
	log     *zap.SugaredLogger
	svc     *service.RunService
	store   storage.RunStore
	router  *mux.Router
	hub     *Hub
	origins []string

	hubOnce sync.Once
	stopHub context.CancelFunc
	httpSrv *http.Server
}

// NewServer wires the run service's trade hook to the WebSocket hub. store
// serves the read endpoints and may be the same store the service archives to.
func NewServer(log *zap.SugaredLogger, svc *service.RunService, store storage.RunStore, allowedOrigins []string) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		log:     log,
		svc:     svc,
		store:   store,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		origins: allowedOrigins,
	}
	svc.OnTrades = s.BroadcastTrades

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/runs", s.handleCreateRun).Methods("POST")
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{key}", s.handleGetRun).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the CORS-wrapped router and starts the hub on first use.
func (s *Server) Handler() http.Handler {
	s.hubOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.stopHub = cancel
		go s.hub.Run(ctx)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Infow("api_server_starting", "addr", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.Close()
	return err
}

// Close stops the WebSocket hub.
func (s *Server) Close() {
	if s.stopHub != nil {
		s.stopHub()
	}
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.RunID != nil && *req.RunID == "" {
		req.RunID = nil
	}

	res, err := s.svc.Execute(r.Context(), req.Orders, req.RunID)
	if err != nil {
		if isValidation(err) {
			s.respondError(w, http.StatusBadRequest, "invalid orders", err.Error())
			return
		}
		s.log.Errorw("run_failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, "run failed", err.Error())
		return
	}

	s.respondStatus(w, http.StatusCreated, RunResponse{
		Key:    res.Key,
		RunID:  res.RunID,
		Trades: res.Ledger.Entries,
		Residual: Residual{
			Bids:      res.Bids,
			Asks:      res.Asks,
			BidLevels: res.BidLevels,
			AskLevels: res.AskLevels,
		},
		Summary:   res.Summary,
		Digest:    res.Digest,
		ElapsedMs: float64(res.Elapsed.Microseconds()) / 1000,
	})
}

func isValidation(err error) bool {
	var verr *core.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, core.ErrInvalidSide) ||
		errors.Is(err, core.ErrInvalidQuantity) ||
		errors.Is(err, core.ErrInvalidPrice)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit", v)
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		s.log.Errorw("list_runs_failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list runs", err.Error())
		return
	}
	s.respondJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	meta, records, err := s.store.LoadRun(key)
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		s.respondError(w, http.StatusNotFound, "run not found", key)
		return
	case errors.Is(err, storage.ErrInvalidKey):
		s.respondError(w, http.StatusBadRequest, "invalid run key", key)
		return
	case err != nil:
		s.log.Errorw("load_run_failed", "key", key, "err", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load run", err.Error())
		return
	}

	s.respondJSON(w, RunDetail{RunMeta: meta, Trades: records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, map[string]any{"status": "ok", "ws_clients": s.hub.Clients()})
}

// ==============================
// Broadcast Methods (called from the run service)
// ==============================

// BroadcastTrades pushes a run's trades to "trades" and, when the run has an
// id, to "trades:<run_id>".
func (s *Server) BroadcastTrades(res *service.Result) {
	channels := []string{"trades"}
	if res.RunID != nil {
		channels = append(channels, "trades:"+*res.RunID)
	}
	for _, ch := range channels {
		n := s.hub.BroadcastToChannel(ch, TradesUpdate{
			Type:    "trades",
			Channel: ch,
			Key:     res.Key,
			RunID:   res.RunID,
			Trades:  res.Ledger.Entries,
		})
		if n > 0 {
			s.log.Debugw("trades_broadcast", "channel", ch, "clients", n, "trades", res.Ledger.Len())
		}
	}
}

// ==============================
// Helper Functions
// ==============================

func (s *Server) respondJSON(w http.ResponseWriter, data interface{}) {
	s.respondStatus(w, http.StatusOK, data)
}

// respondStatus encodes before writing the header so an unencodable body
// turns into a 500 rather than an empty success.
func (s *Server) respondStatus(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		s.log.Errorw("response_encode_failed", "status", status, "err", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "failed to encode response", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.log.Debugw("response_write_failed", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, error string, message string) {
	s.respondStatus(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
