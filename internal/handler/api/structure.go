package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	domrepo "StructScan/internal/domain/repository"
	icache "StructScan/internal/service/cache"
	"StructScan/internal/service/metrics"
	"StructScan/internal/service/ratelimit"
	"StructScan/internal/usecase"
	xhttp "StructScan/pkg/http"
	applogger "StructScan/pkg/logger"
)

// StructureHandler serves raw net/http endpoints for the annotated
// structure series. The Echo handlers in structure_echo.go are the
// primary surface; these exist for embedding into plain mux setups.
type StructureHandler struct {
	reader *usecase.StructureReader
	cache  icache.BytesCache
	rl     *ratelimit.Limiter
	l      *applogger.Logger
}

func NewStructureHandler(reader *usecase.StructureReader) *StructureHandler {
	metrics.Register()
	return &StructureHandler{reader: reader, rl: ratelimit.New()}
}

func (h *StructureHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *StructureHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *StructureHandler) Structure() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "structure"
		defer func() { metrics.StructureLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("structure missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		n := xhttp.ParseIntDefault(r.URL.Query().Get("n"), 600)
		tf := domrepo.NormalizeTimeframe(r.URL.Query().Get("tf"))
		if !h.rl.Allow(r.RemoteAddr+":structure", 5, 2) {
			if h.l != nil {
				h.l.Warn("structure rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "h:structure:" + symbol + ":" + string(tf) + ":" + strconv.Itoa(n)
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("structure cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("structure write_error", applogger.Error(err))
				}
				return
			}
		}
		res, err := h.reader.Latest(r.Context(), symbol, n, tf)
		if err != nil {
			metrics.StructureErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("structure error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error("structure marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 15*time.Second); err != nil && h.l != nil {
				h.l.Warn("structure cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("structure write_error", applogger.Error(err))
		}
	}
}

func (h *StructureHandler) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "state"
		defer func() { metrics.StructureLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("structure.state missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		tf := domrepo.NormalizeTimeframe(r.URL.Query().Get("tf"))
		if !h.rl.Allow(r.RemoteAddr+":state", 5, 2) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		res, err := h.reader.State(r.Context(), symbol, tf)
		if err != nil {
			metrics.StructureErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("structure.state error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil && h.l != nil {
			h.l.Warn("structure.state write_error", applogger.Error(err))
		}
	}
}

func (h *StructureHandler) Runs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "runs"
		defer func() { metrics.StructureLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		limit := xhttp.ParseIntDefault(r.URL.Query().Get("limit"), 20)
		if !h.rl.Allow(r.RemoteAddr+":runs", 3, 1) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		res, err := h.reader.Runs(r.Context(), symbol, limit)
		if err != nil {
			metrics.StructureErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("structure.runs error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil && h.l != nil {
			h.l.Warn("structure.runs write_error", applogger.Error(err))
		}
	}
}
