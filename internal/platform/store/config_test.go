package store

import (
	"testing"

	"quickgithub/internal/platform/config"
	"quickgithub/internal/platform/testkit"
)

func TestConfigFrom(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://u:p@db:5432/quickgithub")
	t.Setenv("SERVICE_PGSQL_MAX_CONNS", "12")
	t.Setenv("SERVICE_REDIS_URL", "redis://cache:6379/0")
	t.Setenv("SERVICE_CLICKHOUSE_DSN", "")

	c := ConfigFrom(config.New(), "quickgithub-api")
	if c.AppName != "quickgithub-api" || !c.PG.Enabled || c.PG.MaxConns != 12 || c.PG.SlowQueryMs != 500 {
		t.Fatalf("pg %+v", c)
	}
	if !c.RDS.Enabled || c.RDS.URL != "redis://cache:6379/0" {
		t.Fatalf("redis %+v", c.RDS)
	}
	if c.CH.Enabled {
		t.Fatalf("clickhouse enabled without dsn")
	}

	t.Setenv("SERVICE_CLICKHOUSE_DSN", "clickhouse://ch:9000/default")
	if c := ConfigFrom(config.New(), "x"); !c.CH.Enabled || c.CH.DSN == "" {
		t.Fatalf("clickhouse %+v", c.CH)
	}
}

func TestConfigFromRequiresBackends(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://db/quickgithub")
	t.Setenv("SERVICE_REDIS_URL", "")
	testkit.MustPanic(t, func() { ConfigFrom(config.New(), "x") })
}
