package server

import (
	"net/http"
	"net/http/httputil"

	"github.com/flarebyte/shiftlog/internal/log"
	"github.com/flarebyte/shiftlog/internal/offline"
)

// newProxy forwards app-shell requests to the cache origin through the
// offline cache, so installed paths keep working without a network.
func newProxy(cache *offline.Cache) http.Handler {
	origin := cache.Origin()
	p := httputil.NewSingleHostReverseProxy(origin)
	p.Transport = cache
	director := p.Director
	p.Director = func(r *http.Request) {
		director(r)
		r.Host = origin.Host
	}
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.GetLogger().WithError(err).WithField("path", r.URL.Path).Warn("upstream unavailable")
		w.WriteHeader(http.StatusBadGateway)
	}
	return p
}
