// Package main provides a CI-friendly smoke test for the backend auth event
// stream.
//
// It validates:
//   - websocket handshake against /auth/v1/events
//   - frame decoding into auth events
//   - clean unsubscribe
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"nimbus/cmd/internal/remote"
)

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:54321", "Backend base URL")
		anonKey = flag.String("key", os.Getenv("NIMBUS_BACKEND_ANON_KEY"), "Backend anon key")
		count   = flag.Int("n", 1, "Number of events to wait for")
		timeout = flag.Duration("timeout", 15*time.Second, "Overall timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	cfg := remote.DefaultConfig()
	cfg.BaseURL = *baseURL
	cfg.AnonKey = *anonKey

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client, err := remote.NewClient(cfg, log)
	if err != nil {
		fatalf("client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	events := make(chan remote.AuthEvent, 16)
	sub, err := client.Subscribe(ctx, func(ev remote.AuthEvent) {
		select {
		case events <- ev:
		default:
		}
	})
	if err != nil {
		fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	for i := 0; i < *count; i++ {
		select {
		case ev := <-events:
			if *verbose {
				fmt.Printf("event %d: type=%s signed_in=%v\n", i+1, ev.Type, ev.Session != nil)
			}
		case <-ctx.Done():
			fatalf("timed out after %d/%d events", i, *count)
		}
	}

	fmt.Println("events smoke: OK")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "events smoke: "+format+"\n", args...)
	os.Exit(1)
}
