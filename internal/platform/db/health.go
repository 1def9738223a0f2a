package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// SchemaStats tells whether every embedded migration has been applied.
type SchemaStats struct {
	Version int `json:"version"`
	Pending int `json:"pending"`
}

// Pinger is the part of *pgxpool.Pool the health check uses.
type Pinger interface {
	Ping(ctx context.Context) error
	Stat() *pgxpool.Stat
}

// StatusReporter is implemented by *Migrator.
type StatusReporter interface {
	Status(ctx context.Context) ([]MigrationStatus, error)
}

// GetPoolStats returns connection pool statistics. A nil stat yields an
// unhealthy zero value.
func GetPoolStats(stat *pgxpool.Stat) *PoolStats {
	if stat == nil {
		return &PoolStats{AcquireDuration: "0s"}
	}
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// GetSchemaStats summarizes migration statuses: the highest applied version
// and how many migrations are still pending.
func GetSchemaStats(statuses []MigrationStatus) SchemaStats {
	var s SchemaStats
	for _, st := range statuses {
		if !st.Applied {
			s.Pending++
		} else if st.Version > s.Version {
			s.Version = st.Version
		}
	}
	return s
}

// HealthHandler answers 200 when the database answers a ping and, if schema
// is non-nil, no migration is pending. Failure causes are logged; callers
// only see which check failed.
func HealthHandler(pool Pinger, schema StatusReporter, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		stats := GetPoolStats(pool.Stat())
		if err := pool.Ping(ctx); err != nil {
			logger.Error().Err(err).Msg("database ping failed")
			stats.Healthy = false
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  "database unreachable",
				"pool":   stats,
			})
		}
		stats.Healthy = true

		body := map[string]any{"status": "healthy", "pool": stats}
		if schema == nil {
			return c.JSON(http.StatusOK, body)
		}

		statuses, err := schema.Status(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("migration status failed")
			body["status"] = "unhealthy"
			body["error"] = "migration status unavailable"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		ss := GetSchemaStats(statuses)
		body["schema"] = ss
		if ss.Pending > 0 {
			body["status"] = "unhealthy"
			body["error"] = "migrations pending"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}
