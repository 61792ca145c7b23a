package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"spotarb/internal/application/usecase/monitor"
	"spotarb/internal/domain/model"
)

// StatusSource 调度器状态
type StatusSource interface {
	Status() monitor.Status
}

// HistorySource 已落库的行情和机会
type HistorySource interface {
	LatestBids(ctx context.Context, pair model.TradingPair) (map[string]float64, error)
	CountOpportunities(ctx context.Context, since time.Time) (int, error)
}

// defaultWindow /opportunities/count 未给 window 时的统计窗口
const defaultWindow = 24 * time.Hour

type Server struct {
	srv *http.Server
}

func New(addr string, gatherer prometheus.Gatherer, status StatusSource, history HistorySource) *Server {
	return &Server{srv: &http.Server{
		Addr:         addr,
		Handler:      NewRouter(gatherer, status, history),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}}
}

// NewRouter history 为 nil 时不注册 /quotes 和 /opportunities
func NewRouter(gatherer prometheus.Gatherer, status StatusSource, history HistorySource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		if status == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "scheduler not running"})
			return
		}
		writeJSON(w, http.StatusOK, status.Status())
	})
	if history != nil {
		r.Get("/quotes/{pair}", latestBids(history))
		r.Get("/opportunities/count", countOpportunities(history))
	}
	return r
}

func latestBids(history HistorySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pair, err := model.ParsePair(chi.URLParam(r, "pair"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		bids, err := history.LatestBids(r.Context(), pair)
		if err != nil {
			log.Error().Err(err).Str("pair", pair.String()).Msg("latest bids query failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pair": pair.String(), "bids": bids})
	}
}

func countOpportunities(history HistorySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window := defaultWindow
		if s := r.URL.Query().Get("window"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil || d <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "window must be a positive duration"})
				return
			}
			window = d
		}
		since := time.Now().Add(-window)
		n, err := history.CountOpportunities(r.Context(), since)
		if err != nil {
			log.Error().Err(err).Msg("opportunity count query failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"window": window.String(),
			"since":  since.UTC().Format(time.RFC3339),
			"count":  n,
		})
	}
}

// Run 阻塞直到 ctx 结束，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(sctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
