// Command loader re-extracts uploaded documents and rewrites their pivot
// text files. Paths default to the upload directory.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"studydigest/config"
	"studydigest/loader"
	"studydigest/loader/service"
	"studydigest/logger"
	"studydigest/store"
)

func main() {
	workers := flag.Int("workers", 4, "number of concurrent extractions")
	flag.Parse()

	cfg := config.Load()
	zlog := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var registry store.DocumentRegistry = store.NopRegistry{}
	if cfg.Database.DSN != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatal("error to connect to Postgres database: ", err)
		}
		if err := pg.Init(ctx); err != nil {
			log.Fatal("error to create tables: ", err)
		}
		defer pg.Close()
		registry = pg
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{cfg.App.UploadDir}
	}

	svc := service.New(loader.NewDefaultRouter(zlog), store.NewPivotStore(cfg.App.TextDir), registry, zlog, *workers)
	report, err := svc.Run(ctx, paths)
	if err != nil {
		log.Printf("batch stopped: %v", err)
	}
	log.Printf("processed %d documents (%d with extraction errors, %d skipped)", report.Processed, report.Failed, report.Skipped)
}
