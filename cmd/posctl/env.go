package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/subcommands"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
)

// cliEnv carries what every command needs: a way to reach the services and somewhere to print.
type cliEnv struct {
	open func(ctx context.Context) (*app.Container, func(), error)
	out  io.Writer
	err  io.Writer
}

func defaultEnv() *cliEnv {
	return &cliEnv{
		open: func(ctx context.Context) (*app.Container, func(), error) {
			cfg, err := app.LoadConfig()
			if err != nil {
				return nil, nil, err
			}
			// operator output goes to stdout, so logs stay quiet unless they matter
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			c, err := app.NewContainer(ctx, cfg, logger, app.ContainerOptions{})
			if err != nil {
				return nil, nil, err
			}
			return c, c.Close, nil
		},
		out: os.Stdout,
		err: os.Stderr,
	}
}

// run opens the container, runs fn and maps its error to an exit status.
func (e *cliEnv) run(ctx context.Context, fn func(*app.Container) error) subcommands.ExitStatus {
	c, closeFn, err := e.open(ctx)
	if err != nil {
		fmt.Fprintln(e.err, "Error:", err)
		return subcommands.ExitFailure
	}
	defer closeFn()
	if err := fn(c); err != nil {
		fmt.Fprintln(e.err, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func redisOpts(cfg *app.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
}
