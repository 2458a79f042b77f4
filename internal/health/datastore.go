package health

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mcpo-tools/mcpoctl/internal/config"
)

const datastoreTimeout = 5 * time.Second

// checkDatabaseHealth dispatches to the datastore-specific probe. Missing or
// unrecognized configuration makes the check inapplicable, not a failure.
func (c *Checker) checkDatabaseHealth(ctx context.Context) Result {
	db := c.cfg.Database
	if db == nil {
		return Result{
			Status:  StatusSkip,
			Message: "No database configuration",
			Details: map[string]any{},
		}
	}

	switch db.Type {
	case config.DatabaseTypePostgres:
		return c.checkPostgres(ctx, db)
	case config.DatabaseTypeRedis:
		return c.checkRedis(ctx, db)
	default:
		return Result{
			Status:  StatusSkip,
			Message: fmt.Sprintf("Unknown database type: %s", db.Type),
			Details: map[string]any{},
		}
	}
}

func (c *Checker) checkPostgres(ctx context.Context, db *config.Database) Result {
	host := valueOr(db.Host, "localhost")
	port := db.Port
	if port == 0 {
		port = 5432
	}
	dbname := valueOr(db.DBName, "openwebui")

	failDetails := map[string]any{"host": host, "port": port}

	ctx, cancel := context.WithTimeout(ctx, datastoreTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, postgresDSN(host, port, dbname, db.User, db.Password))
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("PostgreSQL connection failed: %v", err),
			Details: failDetails,
		}
	}
	defer conn.Close(context.Background())

	var version string
	if err := conn.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("PostgreSQL query failed: %v", err),
			Details: failDetails,
		}
	}

	var size int64
	if err := conn.QueryRow(ctx, "SELECT pg_database_size(current_database())").Scan(&size); err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("PostgreSQL query failed: %v", err),
			Details: failDetails,
		}
	}

	return Result{
		Status:  StatusPass,
		Message: "PostgreSQL connection successful",
		Details: map[string]any{
			"host":     host,
			"port":     port,
			"database": dbname,
			"version":  version,
			"size_mb":  round2(float64(size) / (1024 * 1024)),
		},
	}
}

func (c *Checker) checkRedis(ctx context.Context, db *config.Database) Result {
	host := valueOr(db.Host, "localhost")
	port := db.Port
	if port == 0 {
		port = 6379
	}

	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Password:    db.Password,
		DialTimeout: datastoreTimeout,
		ReadTimeout: datastoreTimeout,
	})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Redis connection failed: %v", err),
			Details: map[string]any{"host": host, "port": port},
		}
	}

	info, err := client.Info(ctx, "server", "memory", "clients").Result()
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Redis INFO failed: %v", err),
			Details: map[string]any{"host": host, "port": port},
		}
	}
	fields := parseRedisInfo(info)

	details := map[string]any{
		"host":              host,
		"port":              port,
		"version":           fields["redis_version"],
		"connected_clients": fields["connected_clients"],
	}
	if used, err := strconv.ParseInt(fields["used_memory"], 10, 64); err == nil {
		details["used_memory_mb"] = round2(float64(used) / (1024 * 1024))
	}

	return Result{
		Status:  StatusPass,
		Message: "Redis connection successful",
		Details: details,
	}
}

func postgresDSN(host string, port int, dbname, user, password string) string {
	fields := []string{
		fmt.Sprintf("host=%s", host),
		fmt.Sprintf("port=%d", port),
		fmt.Sprintf("dbname=%s", dbname),
		fmt.Sprintf("user=%s", valueOr(user, "postgres")),
		"connect_timeout=5",
		"application_name=mcpoctl",
	}
	if password != "" {
		fields = append(fields, fmt.Sprintf("password=%s", password))
	}
	return strings.Join(fields, " ")
}

// parseRedisInfo flattens an INFO response into key/value pairs, dropping
// section headers.
func parseRedisInfo(info string) map[string]string {
	fields := map[string]string{}
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, ok := strings.Cut(line, ":"); ok {
			fields[key] = value
		}
	}
	return fields
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
