package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/apex-data/brake.report/internal/analysis"
	"github.com/apex-data/brake.report/internal/api"
	"github.com/apex-data/brake.report/internal/config"
	"github.com/apex-data/brake.report/internal/db"
	"github.com/apex-data/brake.report/internal/units"
	"github.com/apex-data/brake.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "brake_data.db", "Path to the SQLite database")
	tuningFile = flag.String("tuning", "", "Path to a tuning JSON file (defaults apply when empty)")
	unitsFlag  = flag.String("units", "mph", "Default speed units ("+units.GetValidUnitsString()+")")
	debugMode  = flag.Bool("debug", false, "Mount the admin debugging routes")
)

func main() {
	flag.Parse()

	// "brake-report migrate <up|down|status|...>" runs the migration CLI
	// against the database and exits.
	if flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], *dbFile)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*unitsFlag) {
		log.Fatalf("invalid units %q, must be one of: %s", *unitsFlag, units.GetValidUnitsString())
	}

	tuning := config.DefaultTuning()
	if *tuningFile != "" {
		var err error
		tuning, err = config.LoadTuning(*tuningFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.CheckMigrations(); err != nil {
		log.Fatalf("database schema out of date: %v (run `brake-report migrate up`)", err)
	}

	pipeline := analysis.NewPipeline(tuning)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(database, pipeline, *unitsFlag).ServeMux()

		// mount the admin debugging routes (accessible only in debug mode)
		if *debugMode {
			database.AttachAdminRoutes(mux)
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("brake-report %s listening on %s (units=%s db=%s)",
				version.String(), *listen, *unitsFlag, *dbFile)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
