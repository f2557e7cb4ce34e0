// Command demoserver serves the fixture pages used to exercise both fetch
// modes by hand.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999 (or demo.port from pagefetch.yaml / PAGEFETCH_DEMO_PORT)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/raysh454/pagefetch/internal/app"
	"github.com/raysh454/pagefetch/internal/logging"
)

func main() {
	cfg, err := app.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			fmt.Fprintf(os.Stderr, "Invalid port: %s\n", os.Args[1])
			os.Exit(1)
		}
		cfg.Demo.Port = port
	}

	a, err := app.NewApplication(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("===========================================")
	fmt.Println("   pagefetch fixture server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Printf("Try: pagefetch diff http://localhost:%d/rendered\n", cfg.Demo.Port)
	fmt.Println()

	if err := a.DemoServer().Start(ctx); err != nil {
		a.Logger.Error("demo server stopped", logging.Err(err))
		_ = a.Shutdown(context.Background())
		os.Exit(1)
	}
	_ = a.Shutdown(context.Background())
}
