// Command modcheck analyses and compares moderation reports from the command
// line, using the same engine as the web server.
//
//	modcheck analyze report.csv --critical
//	modcheck compare autumn.xlsx spring.xlsx --field category
//	modcheck profiles
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/moderation/internal/core"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprint(os.Stderr, errorText(err))
		stop()
		os.Exit(1)
	}
}

// errorText is what modcheck prints for a failed command. Errors with a
// known user message get it on a second line.
func errorText(err error) string {
	if core.IsUserFacing(err) {
		return fmt.Sprintf("modcheck: %v\n%s\n", err, core.FormatUserError(err))
	}
	return fmt.Sprintf("modcheck: %v\n", err)
}
