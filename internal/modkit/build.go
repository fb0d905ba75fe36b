package modkit

import (
	"net/http"

	phttp "quickgithub/internal/platform/net/http"
)

// Built is a plain struct with the fields modules care about
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any

	// Register attaches endpoints to the module router
	Register func(phttp.Router)
}

// Build applies Option funcs and returns a plain struct
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(phttp.Router) {}
	}
	return Built{
		Name:     c.name,
		Prefix:   c.prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:    c.ports,
		Register: c.register,
	}
}

// Mount registers b under its prefix with its middleware, or directly on r when there is no prefix
func (b Built) Mount(r phttp.Router) {
	if b.Prefix == "" {
		if len(b.Mw) > 0 {
			r = r.With(b.Mw...)
		}
		b.Register(r)
		return
	}
	r.Route(b.Prefix, func(sub phttp.Router) {
		if len(b.Mw) > 0 {
			sub.Use(b.Mw...)
		}
		b.Register(sub)
	})
}
