package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"secrets-manager-utility/pkg/env"
	"secrets-manager-utility/pkg/logger"
	"secrets-manager-utility/pkg/secrets"
	"secrets-manager-utility/pkg/telemetry"
)

const serviceName = "secret-fetch"

const (
	exitOK    = 0
	exitFetch = 1
	exitUsage = 2
)

// SecretSource is the part of the accessor the command needs.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
	GetKey(ctx context.Context, name, key string) (string, error)
}

func main() {
	env.Load()
	logger.Setup(os.Stderr, serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		logger.Warn("otel_init_failed", "error", err)
	}

	args := os.Args[1:]
	if len(args) < 1 || len(args) > 2 {
		usage(os.Stderr)
		shutdown()
		os.Exit(exitUsage)
	}

	accessor, err := secrets.NewFromEnv(ctx)
	if err != nil {
		logger.Error("secret_accessor_init_failed", "error", err)
		shutdown()
		os.Exit(exitFetch)
	}

	code := run(ctx, accessor, args, os.Stdout)

	if msg := accessor.Release(); msg != "" {
		logger.Warn("secret_accessor_release", "message", msg)
	}
	shutdown()
	os.Exit(code)
}

// run fetches the secret (or one of its fields) named by args and writes it
// to out followed by a newline.
func run(ctx context.Context, src SecretSource, args []string, out io.Writer) int {
	var (
		value string
		err   error
	)

	name := args[0]
	switch len(args) {
	case 1:
		value, err = src.GetSecret(ctx, name)
	case 2:
		value, err = src.GetKey(ctx, name, args[1])
	default:
		return exitUsage
	}

	if err != nil {
		logger.Error("secret_fetch_failed", "secret", name, "reason", reason(err), "error", err)
		return exitFetch
	}

	fmt.Fprintln(out, value)
	return exitOK
}

// reason maps an error to a short category for logs.
func reason(err error) string {
	switch {
	case secrets.IsNotFound(err):
		return "not_found"
	case secrets.IsInvalidParameter(err):
		return "invalid_parameter"
	case secrets.IsInvalidRequest(err):
		return "invalid_request"
	case errors.Is(err, secrets.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, secrets.ErrParse):
		return "parse"
	case errors.Is(err, secrets.ErrMissingKey):
		return "missing_key"
	case errors.Is(err, secrets.ErrInvalidState):
		return "invalid_state"
	default:
		return "unknown"
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s <secret-name> [key]\n", serviceName)
	fmt.Fprintln(w, "  SECRETS_BACKEND selects aws (default), bao, kubernetes or gcp.")
}
