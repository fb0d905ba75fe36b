package httpkit

import (
	phttp "quickgithub/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func adapt(m *chi.Mux) Router { return phttp.AdaptChi(m) }
