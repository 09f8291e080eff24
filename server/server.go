// Package server wires configuration, the archive cache, and the HTTP
// handlers together into a runnable process.
package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"comixfs/archive"
	"comixfs/cache"
	"comixfs/config"
	"comixfs/handlers"
	"comixfs/resolver"
)

// Run starts the HTTP server with the given configuration. It blocks until
// the listener returns an error.
func Run(cfg *config.Config) error {
	ac := cache.New(cfg.ByteBudget, cfg.HandleBudget, archive.OpenFile, archive.OpenMem, archive.IsArchive)
	res := resolver.New(cfg.Root, ac)

	bwManager := handlers.NewBandwidthManager(cfg.BandwidthLimit)

	mux := http.NewServeMux()
	registerRoutes(mux, res, cfg.TranscodeImages, bwManager)

	logStartup(cfg)

	stopWatcher, err := handlers.StartWatcher(cfg.Root, ac)
	if err != nil {
		log.Printf("watcher: could not start filesystem watcher: %v", err)
	} else {
		defer stopWatcher()
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,

		// ReadHeaderTimeout caps how long the server waits for a client to
		// finish sending HTTP headers. This is the primary Slowloris defence:
		// a client that trickles headers one byte at a time will be
		// disconnected after this deadline regardless of how slowly it writes.
		ReadHeaderTimeout: 20 * time.Second,

		// IdleTimeout closes keep-alive connections that have been idle for
		// this duration, reclaiming goroutines and file descriptors from
		// clients that connect but stop sending requests.
		IdleTimeout: 120 * time.Second,

		// WriteTimeout is intentionally absent. Archive reads and large
		// images can legitimately take a while to stream out; a write
		// deadline would terminate in-progress transfers. The bandwidth
		// limiter already ensures slow readers do not hold unlimited server
		// resources, and IdleTimeout handles truly dead connections.
	}
	return srv.ListenAndServe()
}

// logStartup prints a structured summary of the active configuration.
func logStartup(cfg *config.Config) {
	sep := "-------------------------------------------"
	log.Println(sep)
	log.Printf("  comixfs")
	log.Println(sep)
	log.Printf("  %-18s %s", "Address:", "http://"+cfg.ListenAddr)
	log.Printf("  %-18s %s", "Root:", cfg.Root)
	log.Printf("  %-18s %s", "Byte budget:", formatBytes(cfg.ByteBudget))
	log.Printf("  %-18s %d", "Handle budget:", cfg.HandleBudget)
	log.Printf("  %-18s %s", "Transcode images:", enabledStr(cfg.TranscodeImages))

	if cfg.BandwidthLimit > 0 {
		log.Printf("  %-18s %s/s", "Bandwidth limit:", formatBandwidth(cfg.BandwidthLimit))
	} else {
		log.Printf("  %-18s %s", "Bandwidth limit:", "unlimited")
	}
	log.Println(sep)
}

// enabledStr returns "on" or "off" for use in startup log lines.
func enabledStr(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// formatBytes converts a byte count to a human-readable string.
func formatBytes(n int) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// formatBandwidth converts a bytes/sec value to a human-readable bits/sec string.
func formatBandwidth(bps float64) string {
	bits := bps * 8
	switch {
	case bits >= 1_000_000_000:
		return fmt.Sprintf("%.2f Gbps", bits/1_000_000_000)
	case bits >= 1_000_000:
		return fmt.Sprintf("%.2f Mbps", bits/1_000_000)
	case bits >= 1_000:
		return fmt.Sprintf("%.2f Kbps", bits/1_000)
	default:
		return fmt.Sprintf("%.0f bps", bits)
	}
}
