package server

import (
	"net/http"

	"comixfs/handlers"
	"comixfs/resolver"
)

// registerRoutes attaches the single file-serving route to mux, wrapped in
// the bandwidth limiter.
func registerRoutes(mux *http.ServeMux, res *resolver.Resolver, transcodeImages bool, bw *handlers.BandwidthManager) {
	mux.Handle("/", bw.Wrap(handlers.FileHandler(res, transcodeImages)))
}
