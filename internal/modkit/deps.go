// Package modkit provides module wiring and core deps
package modkit

import (
	"quickgithub/internal/modkit/repokit"
	"quickgithub/internal/platform/config"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	RDS redis.UniversalClient
	CH  store.Clickhouse
}

// FromStore fills the backend handles from an opened store
func FromStore(s *store.Store, cfg config.Conf) Deps {
	return Deps{Log: *logger.Get(), Cfg: cfg, PG: s.PG, RDS: s.RDS, CH: s.CH}
}
