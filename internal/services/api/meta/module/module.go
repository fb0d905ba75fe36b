// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	modkit "quickgithub/internal/modkit"
	phttp "quickgithub/internal/platform/net/http"
	str "quickgithub/internal/platform/strings"

	metahttp "quickgithub/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	built     modkit.Built
	startedAt time.Time
}

// New constructs a meta module; backends are probed by /meta/ready
func New(service string, backends map[string]metahttp.Pinger, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	str.MustString(service, "meta service name")
	m := &Module{built: b, startedAt: time.Now()}

	external := b.Register
	m.built.Register = func(r phttp.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: service,
			StartedAt:   m.startedAt,
			Backends:    backends,
		})
		external(r)
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) { m.built.Mount(r) }

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.built.Name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
