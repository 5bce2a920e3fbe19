// Command clinicore is a terminal client for the Clinicore hospital
// management API. It keeps a persisted session (file, SQLite, or Redis
// backed), logs in and out, and browses the role-scoped resources the
// signed-in account may see.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/clinicore/clinicore-go/auth"
	"github.com/clinicore/clinicore-go/gateway"
	"github.com/clinicore/clinicore-go/internal/config"
	"github.com/clinicore/clinicore-go/session"
	"github.com/clinicore/clinicore-go/session/filestore"
	"github.com/clinicore/clinicore-go/session/memstore"
	"github.com/clinicore/clinicore-go/session/redisstore"
	"github.com/clinicore/clinicore-go/session/sqlitestore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	flags := pflag.NewFlagSet("clinicore", pflag.ContinueOnError)
	apiURL := flags.String("api-url", "", "override the API base URL")
	storeKind := flags.String("session-store", "", "session store backend (file|sqlite|redis|memory)")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}
	if *storeKind != "" {
		cfg.SessionStore = *storeKind
	}

	log := newLogger(cfg.LogLevel, *verbose)

	rest := flags.Args()
	if len(rest) == 0 {
		displayBanner()
		usage()
		return nil
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return errors.Wrap(err, "open session store")
	}
	defer closeStore()

	client, err := gateway.New(cfg.APIBaseURL, store,
		gateway.WithLogger(log),
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		gateway.WithSessionExpiredHook(func() {
			fmt.Fprintln(os.Stderr, "Your session has expired. Please log in again.")
		}),
	)
	if err != nil {
		return errors.Wrap(err, "build API client")
	}

	controller, err := auth.NewController(client, store, auth.WithLogger(log))
	if err != nil {
		return errors.Wrap(err, "build session controller")
	}

	app := &app{
		cfg:        cfg,
		log:        log,
		client:     client,
		controller: controller,
	}
	return app.dispatch(context.Background(), rest[0], rest[1:])
}

// openStore builds the configured session store and a cleanup function.
func openStore(cfg *config.Config) (session.Store, func(), error) {
	noop := func() {}
	switch cfg.SessionStore {
	case config.StoreMemory:
		return memstore.New(), noop, nil
	case config.StoreFile:
		store, err := filestore.New(cfg.StatePath)
		return store, noop, err
	case config.StoreSQLite:
		store, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { store.Close() }, nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		store, err := redisstore.New(rdb, cfg.RedisKey)
		if err != nil {
			rdb.Close()
			return nil, noop, err
		}
		return store, func() { rdb.Close() }, nil
	default:
		return nil, noop, errors.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

func newLogger(level string, verbose bool) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	if verbose {
		parsed = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(parsed).
		With().Timestamp().Logger()
}

func displayBanner() {
	figure.NewFigure("Clinicore", "cybermedium", true).Print()
	fmt.Println()
}

func usage() {
	fmt.Print(`Usage: clinicore [flags] <command> [args]

Commands:
  login            Sign in (prompts for credentials)
  register         Create a patient account
  logout           Sign out and clear the stored session
  whoami           Fetch and display the signed-in user
  status           Show local session state without calling the API
  open <route>     Check navigation: home, login, admin, doctor, patient
  doctors          List doctors visible to your role
  appointments     List appointments visible to your role
  export-history   Export your medical history (patients only)

Flags:
  --api-url          override the API base URL
  --session-store    session store backend (file|sqlite|redis|memory)
  -v, --verbose      enable debug logging
`)
}
