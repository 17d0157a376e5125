// Package ingest registers statement PDFs appearing in the inbox and hands
// them to the background processing queue.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/async"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/common"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/entity"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/repository"
)

// Service turns discovered files into document rows and processing jobs.
type Service struct {
	docs   repository.DocumentRepository
	queue  async.Queue
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, queue async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, queue: queue, logger: logger}
}

// StatementID derives the statement identifier from the file name: the base
// name without its extension.
func StatementID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Register records one uploaded statement and enqueues it for processing.
// A path already registered under the same statement id is skipped so a
// re-fired filesystem event does not duplicate the document.
func (s *Service) Register(ctx context.Context, path string) (*entity.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Warn("ingest.stat_failed", "path", path, "error", err)
		return nil, err
	}

	statementID := StatementID(path)
	if existing, getErr := s.docs.GetByStatementID(ctx, statementID); getErr == nil {
		s.logger.Info("ingest.duplicate_skipped",
			"statement_id", statementID, "document_id", existing.ID)
		return existing, nil
	} else if !errors.Is(getErr, common.ErrNotFound) {
		return nil, getErr
	}

	doc := &entity.Document{
		StatementID: statementID,
		Filename:    filepath.Base(path),
		FilePath:    path,
		FileSize:    info.Size(),
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, async.Job{
		DocumentID:  doc.ID,
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		return doc, err
	}
	s.logger.Info("ingest.registered",
		"statement_id", statementID, "document_id", doc.ID, "bytes", info.Size())
	return doc, nil
}

// Run consumes watcher events until the context ends.
func (s *Service) Run(ctx context.Context, events <-chan string, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			if _, err := s.Register(ctx, path); err != nil {
				s.logger.Error("ingest.register_failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.logger.Error("ingest.watcher_error", "error", err)
		}
	}
}
