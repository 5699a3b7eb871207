package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/session"
	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/validate"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// StocksResponse is the GET /stocks envelope.
type StocksResponse struct {
	Success bool                `json:"success"`
	Stocks  []models.Instrument `json:"stocks"`
	Meta    StocksMeta          `json:"meta"`
}

type StocksMeta struct {
	Count       int   `json:"count"`
	LastUpdated int64 `json:"lastUpdated"`
}

type ControlsResponse struct {
	Success  bool            `json:"success"`
	Controls models.Controls `json:"controls"`
}

type StockResponse struct {
	Success bool              `json:"success"`
	Stock   models.Instrument `json:"stock"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
}

// StockRequest is the POST /stocks body.
type StockRequest struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}

// Handler serves the session read/write surface. Every route resolves a
// principal first; session access is keyed strictly by that principal.
type Handler struct {
	store    *session.Store
	resolver PrincipalResolver
	clock    Clock
	logger   *zap.Logger
}

func NewHandler(store *session.Store, resolver PrincipalResolver, logger *zap.Logger) *Handler {
	return &Handler{store: store, resolver: resolver, clock: realClock{}, logger: logger}
}

// WithClock swaps the time source; tests use this for fixed timestamps.
func (h *Handler) WithClock(c Clock) *Handler {
	h.clock = c
	return h
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /stocks", h.withSession(h.getStocks))
	mux.HandleFunc("POST /stocks", h.withSession(h.postStock))
	mux.HandleFunc("GET /controls", h.withSession(h.getControls))
	mux.HandleFunc("POST /controls", h.withSession(h.postControls))
	mux.HandleFunc("POST /controls/pause", h.withSession(h.pause))
	mux.HandleFunc("POST /controls/resume", h.withSession(h.resume))
	mux.HandleFunc("POST /controls/emergency-stop", h.withSession(h.emergencyStop))
	mux.HandleFunc("POST /controls/emergency-resume", h.withSession(h.emergencyResume))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
}

// withSession resolves the principal and locates (or lazily creates) its
// session before delegating.
func (h *Handler) withSession(next func(w http.ResponseWriter, r *http.Request, s *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.resolver.Resolve(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
			return
		}
		s := h.store.GetOrCreate(r.Context(), p.UserID, p.InstanceID, h.now())
		next(w, r, s)
	}
}

func (h *Handler) now() int64 { return h.clock.Now().UnixMicro() }

func (h *Handler) getStocks(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	stocks, _ := s.Snapshot()

	var last int64
	for _, st := range stocks {
		if st.LastUpdated > last {
			last = st.LastUpdated
		}
	}
	writeJSON(w, http.StatusOK, StocksResponse{
		Success: true,
		Stocks:  stocks,
		Meta:    StocksMeta{Count: len(stocks), LastUpdated: last},
	})
}

func (h *Handler) postStock(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	stock, err := s.UpsertInstrument(req.Symbol, req.Name, req.Price, h.now())
	if err != nil {
		h.writeValidation(w, s, err)
		return
	}

	h.store.Archive(r.Context(), s)
	writeJSON(w, http.StatusOK, StockResponse{Success: true, Stock: stock})
}

func (h *Handler) getControls(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	writeJSON(w, http.StatusOK, ControlsResponse{Success: true, Controls: s.Controls()})
}

func (h *Handler) postControls(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var patch models.ControlsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	controls, err := s.ApplyControls(patch, h.now())
	if err != nil {
		h.writeValidation(w, s, err)
		return
	}

	h.store.Archive(r.Context(), s)
	writeJSON(w, http.StatusOK, ControlsResponse{Success: true, Controls: controls})
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.writeControls(w, r, s, s.Pause(h.now()))
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.writeControls(w, r, s, s.Resume(h.now()))
}

func (h *Handler) emergencyStop(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.logger.Warn("Emergency stop", zap.String("session", s.Key()))
	h.writeControls(w, r, s, s.EmergencyStop(h.now()))
}

func (h *Handler) emergencyResume(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.writeControls(w, r, s, s.EmergencyResume(h.now()))
}

func (h *Handler) writeControls(w http.ResponseWriter, r *http.Request, s *session.Session, c models.Controls) {
	h.store.Archive(r.Context(), s)
	writeJSON(w, http.StatusOK, ControlsResponse{Success: true, Controls: c})
}

func (h *Handler) writeValidation(w http.ResponseWriter, s *session.Session, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var fe *validate.FieldError
	if errors.As(err, &fe) {
		resp.Field = fe.Field
	}
	h.logger.Debug("Validation rejected",
		zap.String("session", s.Key()), zap.String("field", resp.Field), zap.Error(err))
	writeJSON(w, http.StatusBadRequest, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
