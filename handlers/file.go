package handlers

import (
	"log"
	"net/http"
	"path"
	"strconv"
	"time"

	"comixfs/cache"
	"comixfs/resolver"
	"comixfs/transcode"
)

// FileHandler is the system's single HTTP surface: GET a path, get back
// either a plain-text directory listing or a file's bytes. Every internal
// failure kind collapses to 404 — cache misses and missing files are the
// ordinary case here, not a server error.
func FileHandler(res *resolver.Resolver, transcodeImages bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		urlPath := path.Clean("/" + r.URL.Path)
		start := time.Now()

		result, err := res.Read(urlPath)
		if err != nil {
			log.Printf("read miss    path=%s kind=%s", urlPath, cache.KindOf(err))
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if result.IsDir {
			body := []byte(joinLines(result.Names))
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.Write(body)
			return
		}

		mimeType := mimeForName(urlPath)
		body := result.Bytes
		if mimeType == "application/octet-stream" {
			mimeType = sniffMIME(body)
		}

		if transcodeImages {
			if converted, ok := transcode.Convert(body, mimeType); ok {
				body = converted
				mimeType = "image/jpeg"
			}
		}

		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)

		log.Printf("read served  path=%s size=%d duration=%s", urlPath, len(body), time.Since(start).Round(time.Millisecond))
	}
}

func joinLines(names []string) string {
	if len(names) == 0 {
		return ""
	}
	out := make([]byte, 0, len(names)*16)
	for _, n := range names {
		out = append(out, n...)
		out = append(out, '\n')
	}
	return string(out)
}
