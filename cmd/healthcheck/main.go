// Package main is a container healthcheck that probes the server's /livez.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/garyellow/codered-bot-go/internal/config"
)

func main() {
	port := os.Getenv(config.EnvPort)
	if port == "" {
		port = "10000"
	}

	client := &http.Client{Timeout: config.HealthcheckRequest}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/livez", port))
	if err != nil {
		os.Exit(1)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
