// rbacgate serves token login and role-based access control over HTTP.
//
// Usage:
//
//	rbacgate --config configs/rbacgate.yaml
//
// The config path may also come from RBACGATE_CONFIG. SIGHUP reloads the
// policy files; a reload that fails keeps the previous policy. SIGINT and
// SIGTERM shut the server down gracefully.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/rbacgate/config"
	"github.com/jonwraymond/rbacgate/httpapi"
	"github.com/jonwraymond/rbacgate/observe"
	"github.com/jonwraymond/rbacgate/policy"
	"github.com/jonwraymond/rbacgate/token"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "rbacgate: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("rbacgate", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.StringP("config", "c", "", "path to the config file (default $"+config.EnvVar+")")
	listen := flags.String("listen", "", "override the configured listen address")
	check := flags.Bool("check", false, "load the config and policy, print a summary, and exit")
	trustForwarded := flags.Bool("trust-forwarded", false, "take client addresses from X-Forwarded-For")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cfg.Observe.Metrics.Registerer = reg
	cfg.Observe.Logging.Output = stderr

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = obs.Shutdown(sctx)
	}()
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return err
	}
	logger := obs.Logger()

	res, err := cfg.Resolver()
	if err != nil {
		return err
	}
	tokenCfg, err := cfg.TokenServiceConfig(ctx, res)
	if err != nil {
		return err
	}
	tokens, err := token.New(tokenCfg)
	if err != nil {
		return err
	}
	users, err := cfg.ResolvedUsers(ctx, res)
	if err != nil {
		return err
	}

	var store *policy.Store
	err = mw.Do(ctx, observe.OpPolicyReload, func(context.Context) error {
		var err error
		store, err = policy.NewStore(policy.FileLoader(cfg.PolicyPaths()))
		return err
	})
	if err != nil {
		return err
	}

	if *check {
		e := store.Engine()
		for _, name := range slices.Sorted(maps.Keys(users)) {
			if !e.HasSubject(name) {
				fmt.Fprintf(stdout, "warning: user %q holds no role\n", name)
			}
		}
		fmt.Fprintf(stdout, "config ok: %d rules, %d users, listen %s\n", len(e.Rules()), len(users), cfg.Listen)
		return nil
	}

	srv, err := httpapi.New(httpapi.Options{
		Tokens:         tokens,
		Policy:         store,
		Users:          users,
		Observe:        mw,
		Gatherer:       reg,
		LoginPerSecond: cfg.LoginRate.PerSecond,
		LoginBurst:     cfg.LoginRate.Burst,
		TrustForwarded: *trustForwarded,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "listening",
			observe.Field{Key: "addr", Value: ln.Addr().String()},
			observe.Field{Key: "rules", Value: len(store.Engine().Rules())},
		)
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info(sctx, "shutting down")
		return httpServer.Shutdown(sctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				reloadPolicy(gctx, store, mw, logger)
			}
		}
	})

	return g.Wait()
}

// reloadPolicy rebuilds the policy from disk. Failures are logged and the
// running policy stays in place.
func reloadPolicy(ctx context.Context, store *policy.Store, mw *observe.Middleware, logger observe.Logger) {
	err := mw.Do(ctx, observe.OpPolicyReload, func(context.Context) error {
		return store.Reload()
	})
	if err != nil {
		logger.Error(ctx, "policy reload failed, keeping previous policy",
			observe.Field{Key: "error", Value: err.Error()},
			observe.Field{Key: "generation", Value: store.Generation()},
		)
		return
	}
	logger.Info(ctx, "policy reloaded",
		observe.Field{Key: "generation", Value: store.Generation()},
		observe.Field{Key: "rules", Value: len(store.Engine().Rules())},
	)
}
