package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kinance/kinance-go/internal/cli/command"
	"github.com/kinance/kinance-go/internal/infra/confloader"
	"github.com/kinance/kinance-go/internal/infra/shutdown"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := confloader.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ctx, stop := shutdown.NewHandler(shutdown.DefaultGrace, logger.Default()).Notify(context.Background())
	defer stop()

	if err := command.App().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", command.DescribeError(err))
		return 1
	}
	return 0
}
