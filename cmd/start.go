package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"songlib/core/config"
	"songlib/core/database"
	"songlib/core/loader"
	"songlib/core/logger"
	"songlib/core/middleware/auth"
	"songlib/core/middleware/rayid"
	"songlib/core/storage"

	"songlib/feature/catalog/models"
	"songlib/feature/library"
	"songlib/feature/press"
	"songlib/feature/songbook"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the song library server",
	Long:  `Starts the HTTP server, runs the initial content scan and watches the content tree for changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database and migrate the schema
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := models.Migrate(db); err != nil {
			logg.Fatal("Failed to migrate catalog schema", zap.Error(err))
		}
		if err := songbook.Migrate(db); err != nil {
			logg.Fatal("Failed to migrate songbook schema", zap.Error(err))
		}

		ctx, stop := context.WithCancel(context.Background())
		defer stop()

		// 4. Initialize the score mirror (optional object storage)
		var mirror *press.Mirror
		if cfg.Storage.Enabled {
			store, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			mirror = press.NewMirror(store, cfg.Storage.Bucket, logg)
			if err := mirror.EnsureBucket(ctx); err != nil {
				logg.Warn("Score mirror unavailable", zap.Error(err))
			}
		}

		// 5. Initialize the press (render pipeline + build cache)
		renderer := press.NewRenderer(cfg.Press)
		cache := press.NewCache(cfg.Press, renderer, mirror, logg)
		pressService := press.NewService(db, cache, logg)

		// 6. Initialize the library (content tree reconciliation)
		reconciler := library.NewReconciler(db, cache, logg, cfg.Library.WriteBackIDs)
		libraryService := library.NewService(db, reconciler, cfg.Library, logg)

		// 7. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		// Middleware: RayID first so everything downstream is traceable.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 8. Load Features
		mgr := loader.NewManager()
		mgr.Register(library.NewFeature(libraryService, logg))
		mgr.Register(press.NewFeature(pressService, cfg.Press.Enabled, logg))
		mgr.Register(songbook.NewFeature(db, logg))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 9. Initial scan and filesystem watcher
		if cfg.Library.ScanOnStart {
			go func() {
				summary, err := libraryService.RunScan(ctx)
				if err != nil {
					logg.Error("Initial scan failed", zap.Error(err))
					return
				}
				logg.Info("Initial scan finished",
					zap.Int("created", summary.Created),
					zap.Int("updated", summary.Updated),
					zap.Int("unchanged", summary.Unchanged),
					zap.Int("skipped", summary.Skipped),
					zap.Int("failed", summary.Failed),
				)
			}()
		}

		if cfg.Library.Watch {
			debounce := time.Duration(cfg.Library.DebounceMillis) * time.Millisecond
			watcher := library.NewWatcher(reconciler, cfg.Library.ContentDir, debounce, logg)
			if err := watcher.Start(ctx); err != nil {
				logg.Fatal("Failed to start content watcher", zap.Error(err))
			}
		}

		// 10. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 11. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		stop()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
