package store

import (
	"time"

	"quickgithub/internal/platform/config"
)

// Config aggregates per-backend configuration
type Config struct {
	AppName string

	PG  PGConfig
	RDS RedisConfig
	CH  CHConfig
}

// PGConfig configures postgres
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds boot pings; 0 means 20
	ConnectRetries uint
	PingTimeout    time.Duration
}

// RedisConfig configures redis
type RedisConfig struct {
	Enabled  bool
	URL      string
	PoolSize int

	ConnectRetries uint
	PingTimeout    time.Duration
}

// CHConfig configures clickhouse; optional in every process
type CHConfig struct {
	Enabled bool
	DSN     string
}

// ConfigFrom reads SERVICE_PGSQL_*, SERVICE_REDIS_* and SERVICE_CLICKHOUSE_* from root
// Postgres and redis are required; clickhouse turns on when its DSN is set
func ConfigFrom(root config.Conf, app string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	rds := root.Prefix("SERVICE_REDIS_")
	chc := root.Prefix("SERVICE_CLICKHOUSE_")

	dsn := chc.MayString("DSN", "")
	return Config{
		AppName: app,
		PG: PGConfig{
			Enabled:     true,
			URL:         pg.MustString("DBURL"),
			MaxConns:    int32(pg.MayPositiveInt("MAX_CONNS", 4)),
			SlowQueryMs: pg.MayInt("SLOW_MS", 500),
			LogSQL:      pg.MayBool("LOG_SQL", false),
		},
		RDS: RedisConfig{
			Enabled:  true,
			URL:      rds.MustString("URL"),
			PoolSize: rds.MayInt("POOL_SIZE", 0),
		},
		CH: CHConfig{Enabled: dsn != "", DSN: dsn},
	}
}
