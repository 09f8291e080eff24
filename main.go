// comixfs serves a local file tree — including the contents of ZIP, CBZ,
// RAR, CBR, TAR, and 7z archives, nested to any depth — over HTTP as a
// single read-only virtual filesystem.
package main

import (
	"log"

	"comixfs/config"
	"comixfs/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	if err := server.Run(cfg); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
