package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"blinq/internal/config"
	accountshandlers "blinq/internal/handlers/accounts"
	authhandlers "blinq/internal/handlers/auth"
	"blinq/internal/handlers/backup"
	budgethandlers "blinq/internal/handlers/budget"
	"blinq/internal/handlers/dashboard"
	datahandlers "blinq/internal/handlers/data"
	"blinq/internal/handlers/explorer"
	reportshandlers "blinq/internal/handlers/reports"
	settingshandlers "blinq/internal/handlers/settings"
	apphttp "blinq/internal/http"
	authsvc "blinq/internal/services/auth"
	"blinq/internal/services/docstore"
	"blinq/internal/services/finance"
	"blinq/internal/services/persistence"
	"blinq/internal/services/storage"
	"blinq/internal/version"
)

// sessionPurgeInterval is how often expired sessions are swept
const sessionPurgeInterval = time.Hour

var (
	cfg     *config.Config
	store   *storage.Storage
	persist *persistence.Store
	guard   *authsvc.Service
	fin     *finance.Service
)

func main() {
	encrypt := flag.Bool("encrypt", false, "Encrypt the data directory and exit")
	decrypt := flag.Bool("decrypt", false, "Decrypt the data directory and exit")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	info := version.Get()
	if *showVersion {
		fmt.Println(info.String())
		return
	}
	if warning := info.Check(); warning != "" {
		log.Print(warning)
	}

	cfg = config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Printf("Starting blinq %s on %s", info.Short(), cfg.ListenAddr)
	log.Printf("Data directory: %s (store: %s)", cfg.DataDirectory, cfg.Store)

	var err error
	store, err = storage.New(cfg.DataDirectory)
	if err != nil {
		log.Fatalf("Failed to open data directory: %v", err)
	}

	switch {
	case *encrypt:
		if err := runEncrypt(); err != nil {
			log.Fatalf("Encryption failed: %v", err)
		}
		log.Printf("Data directory encrypted")
		return
	case *decrypt:
		if err := runDecrypt(); err != nil {
			log.Fatalf("Decryption failed: %v", err)
		}
		log.Printf("Data directory decrypted")
		return
	}

	if store.IsEncrypted() {
		if err := unlock(); err != nil {
			log.Fatalf("Failed to unlock data directory: %v", err)
		}
		log.Printf("Data directory unlocked")
	}

	if err := SetupDependencies(cfg); err != nil {
		log.Fatalf("Failed to setup dependencies: %v", err)
	}
	defer persist.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, SetupRouter()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Printf("Server stopped")
}

// SetupDependencies opens the document store and initializes every handler
// package. A nil store opens cfg.DataDirectory unencrypted.
func SetupDependencies(c *config.Config) error {
	cfg = c
	if store == nil {
		s, err := storage.New(c.DataDirectory)
		if err != nil {
			return err
		}
		store = s
	}

	docs, err := docstore.Open(context.Background(), docstore.Options{
		Backend:    c.Store,
		Storage:    store,
		SQLitePath: c.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("open %s store: %w", c.Store, err)
	}

	persist = persistence.New(docs)
	guard = authsvc.New(persist, authsvc.Options{SessionTTL: c.SessionTTL, BcryptCost: c.BcryptCost})
	fin = finance.New(persist)

	authhandlers.Initialize(guard)
	datahandlers.Initialize(fin)
	dashboard.Initialize(fin, persist)
	accountshandlers.Initialize(fin)
	explorer.Initialize(fin)
	budgethandlers.Initialize(fin)
	reportshandlers.Initialize(fin)
	settingshandlers.Initialize(persist)
	backup.Initialize(fin, persist)

	return nil
}

// SetupRouter builds the HTTP routes. SetupDependencies must run first.
func SetupRouter() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-Match"},
		ExposedHeaders:   []string{"ETag", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", backup.HandleHealth)
		authhandlers.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(apphttp.RequireSession(guard))

			datahandlers.RegisterRoutes(r)
			dashboard.RegisterRoutes(r)
			accountshandlers.RegisterRoutes(r)
			explorer.RegisterRoutes(r)
			budgethandlers.RegisterRoutes(r)
			reportshandlers.RegisterRoutes(r)
			settingshandlers.RegisterRoutes(r)
			backup.RegisterRoutes(r)
		})
	})

	return r
}

// serve runs the HTTP server and the session sweeper until ctx is done
func serve(ctx context.Context, handler http.Handler) error {
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := guard.PurgeExpired(gctx)
				if err != nil {
					log.Printf("Warning: session purge failed: %v", err)
				} else if n > 0 {
					log.Printf("Purged %d expired sessions", n)
				}
			}
		}
	})

	return g.Wait()
}

// passphrase returns the configured password or prompts for one on the terminal
func passphrase(prompt string) (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for password prompt; set BLINQ_ENCRYPTION_PASSWORD")
	}

	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}

func unlock() error {
	pw, err := passphrase("Data directory password: ")
	if err != nil {
		return err
	}
	return store.Unlock(pw)
}

func runEncrypt() error {
	if store.IsEncrypted() {
		return fmt.Errorf("data directory is already encrypted")
	}

	pw, err := passphrase("New password: ")
	if err != nil {
		return err
	}
	if cfg.Password == "" {
		confirm, err := passphrase("Confirm password: ")
		if err != nil {
			return err
		}
		if confirm != pw {
			return fmt.Errorf("passwords do not match")
		}
	}
	return store.EnableEncryption(pw)
}

func runDecrypt() error {
	if !store.IsEncrypted() {
		return fmt.Errorf("data directory is not encrypted")
	}

	pw, err := passphrase("Data directory password: ")
	if err != nil {
		return err
	}
	return store.DisableEncryption(pw)
}
