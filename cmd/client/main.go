// Command ledgerly-client keeps a local Ledgerly session: it consumes the
// sign-in redirect and revalidates the stored credential.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ledgerly/ledgerly-server-go/internal/client/config"
	"github.com/ledgerly/ledgerly-server-go/internal/client/session"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

const usage = `usage: ledgerly-client <command> [args]

commands:
  hydrate <handoff-url>   store the session carried by a sign-in redirect
  watch                   revalidate the stored session until interrupted
  status [-check]         show the stored session
  logout                  remove the stored session
  save-redirect <path>    remember where to go after signing in
`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, err := cfg.SessionPath()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve session store")
	}
	store, err := session.OpenSQLiteStore(ctx, path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}

	app := &app{
		cfg:    cfg,
		store:  store,
		bus:    session.NewBus(log.Logger),
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		logger: log.Logger,
	}

	err = app.run(ctx, os.Args[1], os.Args[2:])
	store.Close()

	var exit exitError
	switch {
	case err == nil:
	case errors.As(err, &exit):
		os.Exit(int(exit))
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// exitError ends the process with a status code and no message.
type exitError int

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

type app struct {
	cfg    *config.Config
	store  session.Store
	bus    *session.Bus
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	logger zerolog.Logger
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	events, unsubscribe := a.bus.Subscribe()
	defer unsubscribe()
	go func() {
		for e := range events {
			a.logger.Info().Str("event", string(e)).Msg("session event")
		}
	}()

	switch cmd {
	case "hydrate":
		return a.hydrate(ctx, args)
	case "watch":
		return a.watch(ctx)
	case "status":
		return a.status(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "save-redirect":
		return a.saveRedirect(ctx, args)
	default:
		fmt.Fprint(a.errOut, usage)
		return exitError(2)
	}
}

func (a *app) hydrate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("hydrate needs exactly one handoff url")
	}

	browser := &terminalBrowser{location: args[0], out: a.out}
	h := session.NewHydrator(a.store, browser, a.bus, a.logger)

	state := h.Hydrate(ctx)
	fmt.Fprintf(a.out, "hydration: %s\n", state)
	if state == session.StateFailure {
		return exitError(1)
	}
	return nil
}

func (a *app) watch(ctx context.Context) error {
	rec, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		return errors.New("not signed in")
	}

	m := a.monitor()
	m.Start(ctx)
	defer m.Stop()

	fmt.Fprintf(a.out, "watching session for %s every %s\n", rec.Email, a.cfg.CheckInterval)
	select {
	case <-ctx.Done():
		return nil
	case <-m.Done():
		return exitError(1)
	}
}

func (a *app) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	check := fs.Bool("check", false, "revalidate the session with the server")
	if err := fs.Parse(args); err != nil {
		return exitError(2)
	}

	rec, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}

	p := rec.Profile
	fmt.Fprintf(a.out, "email:    %s\nname:     %s\nrole:     %s\nplan:     %s\nverified: %t\n",
		rec.Email, p.Name, p.Role, p.Plan, p.IsVerified)

	if !*check {
		return nil
	}
	switch err := a.monitor().Check(ctx); {
	case err == nil:
		fmt.Fprintln(a.out, "session: valid")
	case errors.Is(err, session.ErrSessionRejected):
		return exitError(1)
	default:
		fmt.Fprintln(a.out, "session: could not reach server, try again later")
	}
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.bus.Publish(session.EventLoggedOut)
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *app) saveRedirect(ctx context.Context, args []string) error {
	if len(args) != 1 || !util.IsSafeRedirectPath(args[0]) {
		return errors.New("save-redirect needs one path starting with a single /")
	}
	return a.store.SaveRedirect(ctx, args[0])
}

func (a *app) monitor() *session.Monitor {
	return session.NewMonitor(session.MonitorConfig{
		Store:        a.store,
		Checker:      session.NewAPIClient(a.cfg.APIURL, a.cfg.RequestTimeout),
		Browser:      &terminalBrowser{location: session.DefaultLanding, out: a.out},
		Alerter:      &terminalAlerter{in: a.in, out: a.errOut},
		Bus:          a.bus,
		Interval:     a.cfg.CheckInterval,
		SupportEmail: a.cfg.SupportEmail,
		Logger:       a.logger,
	})
}
