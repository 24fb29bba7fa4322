package main

import (
	"log"

	"github.com/devTechs001/folio-collab/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	if err := NewServer(cfg).Run(); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
