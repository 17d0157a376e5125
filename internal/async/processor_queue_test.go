package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/common"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/entity"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/extract/visionocr"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/llm"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/pipeline"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/repository"
)

// blockingDocs parks every pipeline run inside GetByID until release is
// closed, so tests can hold a worker busy deterministically.
type blockingDocs struct {
	started chan struct{}
	release chan struct{}
}

func (d *blockingDocs) GetByID(ctx context.Context, _ uuid.UUID) (*entity.Document, error) {
	select {
	case d.started <- struct{}{}:
	default:
	}
	select {
	case <-d.release:
	case <-ctx.Done():
	}
	return nil, common.NewAppError(common.CodeNotFound, "document not found", common.ErrNotFound)
}

func (d *blockingDocs) Create(context.Context, *entity.Document) error { return nil }
func (d *blockingDocs) GetByStatementID(context.Context, string) (*entity.Document, error) {
	return nil, common.ErrNotFound
}
func (d *blockingDocs) List(context.Context) ([]*entity.Document, error) { return nil, nil }
func (d *blockingDocs) UpdateStatus(context.Context, uuid.UUID, constants.ProcessingStatus) error {
	return nil
}
func (d *blockingDocs) FinishTextExtraction(context.Context, uuid.UUID, repository.TextOutcome) error {
	return nil
}
func (d *blockingDocs) FinishProcessing(context.Context, uuid.UUID, constants.ProcessingStatus, *string) error {
	return nil
}
func (d *blockingDocs) Delete(context.Context, uuid.UUID) error { return nil }

type noopTxns struct{}

func (noopTxns) CreateBatch(context.Context, []entity.Transaction) (int, int) { return 0, 0 }
func (noopTxns) ListByStatementID(context.Context, string) ([]*entity.Transaction, error) {
	return nil, nil
}
func (noopTxns) DeleteByStatementID(context.Context, string) (int64, error) { return 0, nil }

type noopText struct{}

func (noopText) Extract(context.Context, string) extract.Result { return extract.Result{} }

type noopOCR struct{}

func (noopOCR) Extract(context.Context, string) visionocr.Result { return visionocr.Result{} }

type noopEngine struct{}

func (noopEngine) ExtractTransactions(context.Context, string, string) llm.Result {
	return llm.Result{}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestQueue(t *testing.T, docs *blockingDocs, opts ...Option) *ProcessorQueue {
	t.Helper()
	proc := pipeline.NewProcessor(docs, noopTxns{}, noopText{}, noopOCR{}, noopEngine{}, quietLogger())
	return NewProcessorQueue(proc, quietLogger(), opts...)
}

func TestEnqueue_FullQueueRejectsWithoutBlocking(t *testing.T) {
	docs := &blockingDocs{started: make(chan struct{}, 4), release: make(chan struct{})}
	q := newTestQueue(t, docs, WithWorkers(1), WithQueueSize(1))

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{DocumentID: uuid.New()}))

	// Wait until the single worker is parked inside the first job, then fill
	// the one buffered slot.
	select {
	case <-docs.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first job")
	}
	require.NoError(t, q.Enqueue(ctx, Job{DocumentID: uuid.New()}))

	err := q.Enqueue(ctx, Job{DocumentID: uuid.New()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrQueueFull))

	close(docs.release)
	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)
}

func TestEnqueue_AfterShutdownIsNoop(t *testing.T) {
	docs := &blockingDocs{started: make(chan struct{}, 1), release: make(chan struct{})}
	close(docs.release)
	q := newTestQueue(t, docs, WithWorkers(1))

	q.Shutdown(context.Background())
	assert.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}))
}
