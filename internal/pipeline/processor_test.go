package pipeline

import (
	"context"
	"errors"
	"sync"
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
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/repository"
)

type memDocs struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]*entity.Document
	statuses []constants.ProcessingStatus
	outcomes []repository.TextOutcome
}

func newMemDocs() *memDocs {
	return &memDocs{docs: map[uuid.UUID]*entity.Document{}}
}

func (m *memDocs) Create(_ context.Context, doc *entity.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = constants.StatusUploaded
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *memDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, common.NewAppError(common.CodeNotFound, "document not found", common.ErrNotFound)
	}
	cp := *doc
	return &cp, nil
}

func (m *memDocs) GetByStatementID(_ context.Context, statementID string) (*entity.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if doc.StatementID == statementID {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, common.NewAppError(common.CodeNotFound, "document not found", common.ErrNotFound)
}

func (m *memDocs) List(_ context.Context) ([]*entity.Document, error) { return nil, nil }

func (m *memDocs) UpdateStatus(_ context.Context, id uuid.UUID, status constants.ProcessingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id].Status = status
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *memDocs) FinishTextExtraction(_ context.Context, id uuid.UUID, out repository.TextOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id].Status = out.Status
	m.docs[id].TextProcessingCompleted = true
	m.docs[id].TextProcessingError = out.TextError
	m.docs[id].SimilarityScore = out.Similarity
	m.docs[id].ChosenSource = out.ChosenSource
	m.statuses = append(m.statuses, out.Status)
	m.outcomes = append(m.outcomes, out)
	return nil
}

func (m *memDocs) FinishProcessing(_ context.Context, id uuid.UUID, status constants.ProcessingStatus, procErr *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id].Status = status
	m.docs[id].ProcessingError = procErr
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *memDocs) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *memDocs) statusTrail() []constants.ProcessingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]constants.ProcessingStatus(nil), m.statuses...)
}

type memTxns struct {
	mu    sync.Mutex
	saved []entity.Transaction
}

func (m *memTxns) CreateBatch(_ context.Context, txns []entity.Transaction) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, txns...)
	return len(txns), 0
}

func (m *memTxns) ListByStatementID(_ context.Context, _ string) ([]*entity.Transaction, error) {
	return nil, nil
}

func (m *memTxns) DeleteByStatementID(_ context.Context, _ string) (int64, error) { return 0, nil }

type stubDet struct {
	res   extract.Result
	block chan struct{} // if non-nil, Extract waits until closed
}

func (s *stubDet) Extract(_ context.Context, _ string) extract.Result {
	if s.block != nil {
		<-s.block
	}
	return s.res
}

type stubOCR struct {
	res visionocr.Result
}

func (s *stubOCR) Extract(_ context.Context, _ string) visionocr.Result { return s.res }

type stubEngine struct {
	res   llm.Result
	calls int
	text  string
}

func (s *stubEngine) ExtractTransactions(_ context.Context, statementText, statementID string) llm.Result {
	s.calls++
	s.text = statementText
	out := s.res
	for i := range out.Transactions {
		out.Transactions[i].StatementID = statementID
	}
	return out
}

func seedDoc(t *testing.T, docs *memDocs) *entity.Document {
	t.Helper()
	doc := &entity.Document{
		StatementID: "stmt-1",
		Filename:    "stmt-1.pdf",
		FilePath:    "/tmp/stmt-1.pdf",
		FileSize:    1024,
		UploadedAt:  time.Now().UTC(),
	}
	require.NoError(t, docs.Create(context.Background(), doc))
	return doc
}

func okOCR(text string) visionocr.Result {
	return visionocr.Result{
		Success:      true,
		TotalPages:   1,
		CompleteText: text,
		Confidence:   0.9,
	}
}

func TestProcessDocument_HappyPath(t *testing.T) {
	docs := newMemDocs()
	txns := &memTxns{}
	doc := seedDoc(t, docs)

	engine := &stubEngine{res: llm.Result{
		Success: true,
		Transactions: []entity.Transaction{
			{ID: uuid.New(), Source: constants.SourceLLM, ProcessingCompleted: true},
			{ID: uuid.New(), Source: constants.SourceLLM, ProcessingCompleted: true},
		},
		Confidence: 0.92,
	}}
	proc := NewProcessor(docs, txns,
		&stubDet{res: extract.Result{Success: true, Text: "det text", Pages: 2, WordCount: 2}},
		&stubOCR{res: okOCR("det text")},
		engine, nil)

	require.NoError(t, proc.ProcessDocument(context.Background(), doc.ID))

	final, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, final.Status)
	assert.True(t, final.TextProcessingCompleted)
	require.NotNil(t, final.ChosenSource)
	assert.Equal(t, constants.SourceDeterministic, *final.ChosenSource)
	require.NotNil(t, final.SimilarityScore)
	assert.Equal(t, 1.0, *final.SimilarityScore)

	// exactly one status write per stage transition
	assert.Equal(t, []constants.ProcessingStatus{
		constants.StatusTextExtracting,
		constants.StatusTextExtracted,
		constants.StatusTransactionsExtracting,
		constants.StatusCompleted,
	}, docs.statusTrail())

	// engine received the deterministic text; provenance re-tagged
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, "det text", engine.text)
	require.Len(t, txns.saved, 2)
	for _, tx := range txns.saved {
		assert.Equal(t, constants.SourceDeterministic, tx.Source)
		assert.Equal(t, "stmt-1", tx.StatementID)
	}
}

func TestProcessDocument_OCRFallback(t *testing.T) {
	docs := newMemDocs()
	txns := &memTxns{}
	doc := seedDoc(t, docs)

	engine := &stubEngine{res: llm.Result{
		Success:      true,
		Transactions: []entity.Transaction{{ID: uuid.New(), Source: constants.SourceLLM}},
	}}
	proc := NewProcessor(docs, txns,
		&stubDet{res: extract.Failure(extract.ReasonToolMissing, "poppler utilities not installed")},
		&stubOCR{res: okOCR("ocr text")},
		engine, nil)

	require.NoError(t, proc.ProcessDocument(context.Background(), doc.ID))

	final, _ := docs.GetByID(context.Background(), doc.ID)
	assert.Equal(t, constants.StatusCompleted, final.Status)
	require.NotNil(t, final.ChosenSource)
	assert.Equal(t, constants.SourceOCR, *final.ChosenSource)
	assert.Nil(t, final.SimilarityScore) // only one path succeeded

	assert.Equal(t, "ocr text", engine.text)
	require.Len(t, txns.saved, 1)
	assert.Equal(t, constants.SourceOCR, txns.saved[0].Source)

	// the structured failure of the deterministic path is persisted
	require.Len(t, docs.outcomes, 1)
	out := docs.outcomes[0]
	assert.False(t, out.PdftextSuccess)
	require.NotNil(t, out.PdftextError)
	assert.Contains(t, *out.PdftextError, "TOOL_MISSING")
	assert.True(t, out.OCRSuccess)
	require.NotNil(t, out.OCRConfidence)
	assert.Equal(t, float32(0.9), *out.OCRConfidence)
}

func TestProcessDocument_BothPathsFail(t *testing.T) {
	docs := newMemDocs()
	txns := &memTxns{}
	doc := seedDoc(t, docs)

	engine := &stubEngine{res: llm.Result{Success: true}}
	proc := NewProcessor(docs, txns,
		&stubDet{res: extract.Failure(extract.ReasonTimeout, "timeout during text extraction")},
		&stubOCR{res: visionocr.Result{Reason: extract.ReasonNoAPIKey, Error: "no API key configured"}},
		engine, nil)

	require.NoError(t, proc.ProcessDocument(context.Background(), doc.ID))

	final, _ := docs.GetByID(context.Background(), doc.ID)
	assert.Equal(t, constants.StatusTextFailed, final.Status)
	assert.True(t, final.Status.IsTerminal())
	require.NotNil(t, final.TextProcessingError)

	// the transaction stage must never run without text
	assert.Zero(t, engine.calls)
	assert.Empty(t, txns.saved)

	assert.Equal(t, []constants.ProcessingStatus{
		constants.StatusTextExtracting,
		constants.StatusTextFailed,
	}, docs.statusTrail())
}

func TestProcessDocument_EngineFailure(t *testing.T) {
	docs := newMemDocs()
	txns := &memTxns{}
	doc := seedDoc(t, docs)

	engine := &stubEngine{res: llm.Result{Success: false, Error: "invalid JSON response from LLM"}}
	proc := NewProcessor(docs, txns,
		&stubDet{res: extract.Result{Success: true, Text: "det text"}},
		&stubOCR{res: visionocr.Result{Reason: extract.ReasonNoAPIKey, Error: "no API key configured"}},
		engine, nil)

	require.NoError(t, proc.ProcessDocument(context.Background(), doc.ID))

	final, _ := docs.GetByID(context.Background(), doc.ID)
	assert.Equal(t, constants.StatusFailed, final.Status)
	require.NotNil(t, final.ProcessingError)
	assert.Contains(t, *final.ProcessingError, "invalid JSON response")
	assert.Empty(t, txns.saved)
}

func TestProcessDocument_LeaseBlocksConcurrentRun(t *testing.T) {
	docs := newMemDocs()
	txns := &memTxns{}
	doc := seedDoc(t, docs)

	block := make(chan struct{})
	engine := &stubEngine{res: llm.Result{Success: true}}
	proc := NewProcessor(docs, txns,
		&stubDet{res: extract.Result{Success: true, Text: "det text"}, block: block},
		&stubOCR{res: okOCR("det text")},
		engine, nil)

	done := make(chan error, 1)
	go func() { done <- proc.ProcessDocument(context.Background(), doc.ID) }()

	// wait until the first run holds the lease
	require.Eventually(t, func() bool {
		if proc.leases.acquire(doc.ID) {
			proc.leases.release(doc.ID)
			return false
		}
		return true
	}, time.Second, 5*time.Millisecond)

	err := proc.ProcessDocument(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrAlreadyRunning))

	close(block)
	require.NoError(t, <-done)

	// lease released after completion; re-trigger of a terminal doc is a no-op
	require.NoError(t, proc.ProcessDocument(context.Background(), doc.ID))
}

func TestProcessDocument_UnknownDocument(t *testing.T) {
	proc := NewProcessor(newMemDocs(), &memTxns{},
		&stubDet{}, &stubOCR{}, &stubEngine{}, nil)

	err := proc.ProcessDocument(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
