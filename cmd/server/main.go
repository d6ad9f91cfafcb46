// Package main provides the codered bot server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/garyellow/codered-bot-go/internal/app"
	"github.com/garyellow/codered-bot-go/internal/config"
	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		var cfgErr *apperrors.ConfigError
		if errors.As(err, &cfgErr) {
			_, _ = fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", cfgErr)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		}
		os.Exit(1)
	}

	ctx := context.Background()
	application, err := app.Initialize(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		os.Exit(1)
	}
}
