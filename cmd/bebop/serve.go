package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ROM1024/2025-BEBOP/internal/profile"
	"github.com/ROM1024/2025-BEBOP/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		s, err := server.NewServer(ctx, current.profile, current.service, current.metrics, current.location)
		if err != nil {
			return err
		}

		c := make(chan os.Signal, 1)
		// Trigger graceful shutdown on SIGINT or SIGTERM.
		// The default signal sent by the `kill` command is SIGTERM,
		// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		if err := s.Start(ctx); err != nil {
			return err
		}
		printGreetings(current.profile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		<-ctx.Done()
		return nil
	},
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("bebop %s started\n", p.Version)
	fmt.Printf("  schedule: %s\n", p.ScheduleFile)
	fmt.Printf("  api:      http://%s:%d/api/v1\n", p.Addr, p.Port)
	if !p.IsAuthEnabled() {
		fmt.Println("  warning:  API_PASSWORD is not set, the API is open")
	}
	if !p.IsAIEnabled() {
		fmt.Println("  warning:  no LLM API key, optimize is disabled")
	}
}
