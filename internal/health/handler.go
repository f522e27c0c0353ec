package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"rk-goldtrade/internal/httputil"
)

type Handler struct {
	pool      *pgxpool.Pool
	startedAt time.Time
	httpAddr  string
	feedURL   string
}

func NewHandler(pool *pgxpool.Pool, startedAt time.Time, httpAddr, feedURL string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{
		pool:      pool,
		startedAt: start,
		httpAddr:  strings.TrimSpace(httpAddr),
		feedURL:   strings.TrimSpace(feedURL),
	}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Uptime    string `json:"uptime"`
}

type readinessResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	UptimeSec int64   `json:"uptime_sec"`
	Uptime    string  `json:"uptime"`
	Database  dbCheck `json:"database"`
}

type dbCheck struct {
	Reachable bool   `json:"reachable"`
	PingMs    int64  `json:"ping_ms"`
	Error     string `json:"error,omitempty"`
	CheckedAt string `json:"checked_at"`
}

type fullResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	UptimeSec int64        `json:"uptime_sec"`
	Uptime    string       `json:"uptime"`
	App       appStats     `json:"app"`
	Runtime   runtimeStats `json:"runtime"`
	Memory    memoryStats  `json:"memory"`
	Database  dbCheck      `json:"database"`
	Pool      poolStats    `json:"pool"`
}

type appStats struct {
	HTTPAddr string `json:"http_addr"`
	FeedURL  string `json:"feed_url"`
	PID      int    `json:"pid"`
	Hostname string `json:"hostname"`
}

type runtimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	GoMaxProcs int    `json:"gomaxprocs"`
	NumGC      uint32 `json:"num_gc"`
}

type memoryStats struct {
	AllocBytes     uint64 `json:"alloc_bytes"`
	HeapInuseBytes uint64 `json:"heap_inuse_bytes"`
	SysBytes       uint64 `json:"sys_bytes"`
	HeapObjects    uint64 `json:"heap_objects"`
}

type poolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
	AcquireCount  int64 `json:"acquire_count"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func (h *Handler) checkDB(ctx context.Context) dbCheck {
	check := dbCheck{CheckedAt: time.Now().UTC().Format(time.RFC3339)}
	if h.pool == nil {
		check.Error = "pool is not configured"
		return check
	}
	pingStart := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	err := h.pool.Ping(pingCtx)
	cancel()
	check.PingMs = time.Since(pingStart).Milliseconds()
	check.CheckedAt = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	check.Reachable = true
	return check
}

// Live is a lightweight liveness endpoint and does not check database reachability.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
	})
}

// Ready checks the primary dependency (database) and returns 503 when it's not reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	db := h.checkDB(r.Context())
	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, httpStatus, readinessResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		Database:  db,
	})
}

// Full returns full diagnostics. The router guards it with the internal token.
func (h *Handler) Full(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	db := h.checkDB(r.Context())
	pool := poolStats{}
	if h.pool != nil {
		stat := h.pool.Stat()
		pool = poolStats{
			TotalConns:    stat.TotalConns(),
			IdleConns:     stat.IdleConns(),
			AcquiredConns: stat.AcquiredConns(),
			MaxConns:      stat.MaxConns(),
			AcquireCount:  stat.AcquireCount(),
		}
	}

	host := ""
	if hn, err := os.Hostname(); err == nil {
		host = hn
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	httputil.WriteJSON(w, httpStatus, fullResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		App: appStats{
			HTTPAddr: h.httpAddr,
			FeedURL:  h.feedURL,
			PID:      os.Getpid(),
			Hostname: host,
		},
		Runtime: runtimeStats{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			GoMaxProcs: runtime.GOMAXPROCS(0),
			NumGC:      mem.NumGC,
		},
		Memory: memoryStats{
			AllocBytes:     mem.Alloc,
			HeapInuseBytes: mem.HeapInuse,
			SysBytes:       mem.Sys,
			HeapObjects:    mem.HeapObjects,
		},
		Database: db,
		Pool:     pool,
	})
}

// Metrics returns basic Prometheus-compatible metrics. The router guards it
// with the internal token.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	db := h.checkDB(r.Context())
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	dbUp := 0
	if db.Reachable {
		dbUp = 1
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "# HELP rkgold_up Service process is running.\n")
	_, _ = fmt.Fprintf(w, "# TYPE rkgold_up gauge\n")
	_, _ = fmt.Fprintf(w, "rkgold_up 1\n")

	_, _ = fmt.Fprintf(w, "# HELP rkgold_uptime_seconds Service uptime in seconds.\n")
	_, _ = fmt.Fprintf(w, "# TYPE rkgold_uptime_seconds gauge\n")
	_, _ = fmt.Fprintf(w, "rkgold_uptime_seconds %d\n", int64(uptime.Seconds()))

	_, _ = fmt.Fprintf(w, "# HELP rkgold_db_up Database ping status (1=ok,0=down).\n")
	_, _ = fmt.Fprintf(w, "# TYPE rkgold_db_up gauge\n")
	_, _ = fmt.Fprintf(w, "rkgold_db_up %d\n", dbUp)
	_, _ = fmt.Fprintf(w, "rkgold_db_ping_milliseconds %d\n", db.PingMs)

	_, _ = fmt.Fprintf(w, "# HELP rkgold_go_goroutines Number of goroutines.\n")
	_, _ = fmt.Fprintf(w, "# TYPE rkgold_go_goroutines gauge\n")
	_, _ = fmt.Fprintf(w, "rkgold_go_goroutines %d\n", runtime.NumGoroutine())
	_, _ = fmt.Fprintf(w, "rkgold_go_mem_alloc_bytes %d\n", mem.Alloc)
	_, _ = fmt.Fprintf(w, "rkgold_go_mem_heap_inuse_bytes %d\n", mem.HeapInuse)
	_, _ = fmt.Fprintf(w, "rkgold_go_mem_sys_bytes %d\n", mem.Sys)
	_, _ = fmt.Fprintf(w, "rkgold_go_gc_count %d\n", mem.NumGC)

	if h.pool != nil {
		stat := h.pool.Stat()
		_, _ = fmt.Fprintf(w, "# HELP rkgold_db_pool_total_conns Current total DB pool connections.\n")
		_, _ = fmt.Fprintf(w, "# TYPE rkgold_db_pool_total_conns gauge\n")
		_, _ = fmt.Fprintf(w, "rkgold_db_pool_total_conns %d\n", stat.TotalConns())
		_, _ = fmt.Fprintf(w, "rkgold_db_pool_idle_conns %d\n", stat.IdleConns())
		_, _ = fmt.Fprintf(w, "rkgold_db_pool_acquired_conns %d\n", stat.AcquiredConns())
		_, _ = fmt.Fprintf(w, "rkgold_db_pool_max_conns %d\n", stat.MaxConns())
		_, _ = fmt.Fprintf(w, "rkgold_db_pool_acquire_count %d\n", stat.AcquireCount())
	}
}
