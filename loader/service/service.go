package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"studydigest/loader"
	"studydigest/logger"
	"studydigest/store"
	"studydigest/types"

	"github.com/google/uuid"
)

// Report counts what a batch run did.
type Report struct {
	Processed int
	Failed    int
	Skipped   int
}

// Service re-extracts documents already on disk and refreshes their pivot
// files. Extraction runs on a small worker pool; pivots and registry rows are
// written by a single goroutine.
type Service struct {
	logger   logger.ILogger
	router   *loader.Router
	pivots   *store.PivotStore
	registry store.DocumentRegistry
	workers  int
}

func New(router *loader.Router, pivots *store.PivotStore, registry store.DocumentRegistry, log logger.ILogger, workers int) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if registry == nil {
		registry = store.NopRegistry{}
	}
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		logger:   log,
		router:   router,
		pivots:   pivots,
		registry: registry,
		workers:  workers,
	}
}

type extracted struct {
	doc    types.Document
	result loader.Result
}

// Run processes every path. Directories are read one level deep and files
// with an unsupported extension are skipped.
func (s *Service) Run(ctx context.Context, paths []string) (Report, error) {
	files, skipped, err := collectFiles(paths)
	if err != nil {
		return Report{}, err
	}
	report := Report{Skipped: skipped}

	fileChan := make(chan string, 10)
	docChan := make(chan extracted)
	var wg sync.WaitGroup

	go func() {
		defer close(fileChan)
		for _, f := range files {
			select {
			case fileChan <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	for range s.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.processFiles(ctx, fileChan, docChan)
		}()
	}

	go func() {
		wg.Wait()
		close(docChan)
	}()

	saveErr := s.documentSave(ctx, docChan, &report)
	if saveErr != nil {
		// drain so the workers can exit
		for range docChan {
		}
		return report, saveErr
	}
	return report, ctx.Err()
}

func (s *Service) processFiles(ctx context.Context, fileChan <-chan string, docChan chan<- extracted) {
	for path := range fileChan {
		res := s.router.Extract(path)
		base := filepath.Base(path)
		id, original := documentIdentity(base)
		doc := types.Document{
			ID:               id,
			OriginalName:     original,
			StorageName:      base,
			StoragePath:      path,
			Extension:        loader.Ext(path),
			Pages:            res.Pages,
			ExtractionFailed: res.Failed(),
			CreatedAt:        time.Now().UTC(),
		}
		select {
		case docChan <- extracted{doc: doc, result: res}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) documentSave(ctx context.Context, docChan <-chan extracted, report *Report) error {
	for item := range docChan {
		pivotPath, err := s.pivots.Write(item.doc.StoragePath, item.result.Pivot())
		if err != nil {
			return err
		}
		item.doc.PivotPath = pivotPath

		if existing, err := s.registry.GetDocumentByID(ctx, item.doc.ID); err == nil && existing != nil {
			item.doc.OriginalName = existing.OriginalName
			item.doc.CreatedAt = existing.CreatedAt
		}

		if err := s.registry.SaveDocument(ctx, item.doc); err != nil {
			s.logger.Warn("BATCH", "Document registry write failed", map[string]interface{}{
				"path":  item.doc.StoragePath,
				"error": err.Error(),
			})
		}

		report.Processed++
		if item.doc.ExtractionFailed {
			report.Failed++
		}
		s.logger.Info("BATCH", "Pivot refreshed", map[string]interface{}{
			"source": item.doc.StoragePath,
			"pivot":  pivotPath,
			"failed": item.doc.ExtractionFailed,
		})
	}
	return nil
}

// documentIdentity recovers the upload ID from a "<uuid hex>_<name>" storage
// name. Files stored another way get a fresh ID and keep their base name.
func documentIdentity(base string) (uuid.UUID, string) {
	prefix, rest, found := strings.Cut(base, "_")
	if found && rest != "" {
		if id, err := uuid.Parse(prefix); err == nil {
			return id, rest
		}
	}
	return uuid.New(), base
}

func collectFiles(paths []string) ([]string, int, error) {
	var files []string
	skipped := 0
	add := func(path string) {
		if loader.IsAllowed(path) {
			files = append(files, path)
		} else {
			skipped++
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, 0, fmt.Errorf("read dir %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			add(filepath.Join(p, e.Name()))
		}
	}
	sort.Strings(files)
	return files, skipped, nil
}
