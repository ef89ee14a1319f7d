// BarCut: 1D cutting stock optimizer.
//
// Cuts ordered piece lengths from the available stock bars with the least
// waste, then spreads the usage evenly over the stock lengths.
//
// Build:
//
//	go build -o barcut ./cmd/barcut
//
// Examples:
//
//	barcut solve -stock "6x10, 4.5x5" -demand "2x12, 1.5x8" -pdf plan.pdf
//	barcut serve -config barcut.toml
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/BarCut/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
