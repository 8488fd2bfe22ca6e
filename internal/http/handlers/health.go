package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/physio-booking/pkg/logging"
)

// DBPinger is satisfied by *sql.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger is satisfied by *redis.Client.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db      DBPinger
	redis   RedisPinger
	timeout time.Duration
	logger  *logging.Logger
}

// NewHealthHandler creates the probe handler. Nil dependencies are skipped
// by the readiness check.
func NewHealthHandler(db DBPinger, rdb RedisPinger, logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{db: db, redis: rdb, timeout: 2 * time.Second, logger: logger}
}

// Health reports that the process is up.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings the database and Redis.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{}
	ready := true
	if h.db != nil {
		checks["postgres"] = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn("readiness: postgres ping failed", "error", err)
			checks["postgres"] = "unavailable"
			ready = false
		}
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Warn("readiness: redis ping failed", "error", err)
			checks["redis"] = "unavailable"
			ready = false
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}
