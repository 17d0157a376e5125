package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shubhams821/Monitor-Credit-Card-Payments/constants"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/common"
	"github.com/shubhams821/Monitor-Credit-Card-Payments/internal/entity"
)

// TextOutcome is the single write applied when both text sub-paths complete.
type TextOutcome struct {
	PdftextSuccess   bool
	PdftextText      *string
	PdftextWordCount *int
	PdftextPages     *int
	PdftextError     *string

	OCRSuccess    bool
	OCRText       *string
	OCRWordCount  *int
	OCRPages      *int
	OCRConfidence *float32
	OCRError      *string

	Similarity   *float64
	ChosenSource *constants.ExtractionSource

	Status    constants.ProcessingStatus
	TextError *string
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByStatementID(ctx context.Context, statementID string) (*entity.Document, error)
	List(ctx context.Context) ([]*entity.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus) error
	FinishTextExtraction(ctx context.Context, id uuid.UUID, out TextOutcome) error
	FinishProcessing(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus, procErr *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewDocumentRepository(db *sql.DB, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &documentRepo{db: db, log: log}
}

const documentColumns = `id, statement_id, filename, file_path, file_size, uploaded_at, status,
	pdftext_success, pdftext_text, pdftext_word_count, pdftext_pages, pdftext_error,
	ocr_success, ocr_text, ocr_word_count, ocr_pages, ocr_confidence, ocr_error,
	similarity_score, chosen_source,
	text_processing_completed, text_processing_error, processing_error,
	created_at, updated_at`

func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	now := time.Now().UTC()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = constants.StatusUploaded
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `INSERT INTO documents
		(id, statement_id, filename, file_path, file_size, uploaded_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID.String(), doc.StatementID, doc.Filename, doc.FilePath, doc.FileSize,
		doc.UploadedAt, string(doc.Status), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		r.log.Error("document create failed", "statement_id", doc.StatementID, "err", err)
		return common.WrapError(err, "create document")
	}
	r.log.Info("document created", "document_id", doc.ID, "statement_id", doc.StatementID)
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id.String())
	return scanDocument(row)
}

func (r *documentRepo) GetByStatementID(ctx context.Context, statementID string) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE statement_id = $1 ORDER BY created_at DESC LIMIT 1`, statementID)
	return scanDocument(row)
}

func (r *documentRepo) List(ctx context.Context) ([]*entity.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, common.WrapError(err, "list documents")
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		r.log.Error("document status update failed", "document_id", id, "status", status, "err", err)
		return common.WrapError(err, "update document status")
	}
	r.log.Info("document status updated", "document_id", id, "status", status)
	return nil
}

func (r *documentRepo) FinishTextExtraction(ctx context.Context, id uuid.UUID, out TextOutcome) error {
	var chosen *string
	if out.ChosenSource != nil {
		s := string(*out.ChosenSource)
		chosen = &s
	}
	_, err := r.db.ExecContext(ctx, `UPDATE documents SET
		pdftext_success = $1, pdftext_text = $2, pdftext_word_count = $3, pdftext_pages = $4, pdftext_error = $5,
		ocr_success = $6, ocr_text = $7, ocr_word_count = $8, ocr_pages = $9, ocr_confidence = $10, ocr_error = $11,
		similarity_score = $12, chosen_source = $13,
		text_processing_completed = TRUE, text_processing_error = $14,
		status = $15, updated_at = $16
		WHERE id = $17`,
		out.PdftextSuccess, out.PdftextText, out.PdftextWordCount, out.PdftextPages, out.PdftextError,
		out.OCRSuccess, out.OCRText, out.OCRWordCount, out.OCRPages, out.OCRConfidence, out.OCRError,
		out.Similarity, chosen,
		out.TextError,
		string(out.Status), time.Now().UTC(), id.String())
	if err != nil {
		r.log.Error("document text outcome write failed", "document_id", id, "err", err)
		return common.WrapError(err, "finish text extraction")
	}
	r.log.Info("document text outcome written",
		"document_id", id,
		"pdftext_success", out.PdftextSuccess,
		"ocr_success", out.OCRSuccess,
		"status", out.Status,
	)
	return nil
}

func (r *documentRepo) FinishProcessing(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus, procErr *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, processing_error = $2, updated_at = $3 WHERE id = $4`,
		string(status), procErr, time.Now().UTC(), id.String())
	if err != nil {
		r.log.Error("document finish write failed", "document_id", id, "err", err)
		return common.WrapError(err, "finish processing")
	}
	r.log.Info("document processing finished", "document_id", id, "status", status)
	return nil
}

func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id.String())
	if err != nil {
		return common.WrapError(err, "delete document")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc       entity.Document
		idStr     string
		status    string
		chosen    sql.NullString
		pdfText   sql.NullString
		pdfWords  sql.NullInt64
		pdfPages  sql.NullInt64
		pdfErr    sql.NullString
		ocrText   sql.NullString
		ocrWords  sql.NullInt64
		ocrPages  sql.NullInt64
		ocrConf   sql.NullFloat64
		ocrErr    sql.NullString
		simScore  sql.NullFloat64
		textErr   sql.NullString
		processingErr sql.NullString
	)
	err := row.Scan(&idStr, &doc.StatementID, &doc.Filename, &doc.FilePath, &doc.FileSize, &doc.UploadedAt, &status,
		&doc.PdftextSuccess, &pdfText, &pdfWords, &pdfPages, &pdfErr,
		&doc.OCRSuccess, &ocrText, &ocrWords, &ocrPages, &ocrConf, &ocrErr,
		&simScore, &chosen,
		&doc.TextProcessingCompleted, &textErr, &processingErr,
		&doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "document not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "scan document")
	}

	doc.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, common.WrapError(err, "parse document id")
	}
	doc.Status = constants.ProcessingStatus(status)

	doc.PdftextText = nullString(pdfText)
	doc.PdftextWordCount = nullInt(pdfWords)
	doc.PdftextPages = nullInt(pdfPages)
	doc.PdftextError = nullString(pdfErr)

	doc.OCRText = nullString(ocrText)
	doc.OCRWordCount = nullInt(ocrWords)
	doc.OCRPages = nullInt(ocrPages)
	doc.OCRError = nullString(ocrErr)
	if ocrConf.Valid {
		c := float32(ocrConf.Float64)
		doc.OCRConfidence = &c
	}

	if simScore.Valid {
		doc.SimilarityScore = &simScore.Float64
	}
	if chosen.Valid {
		src := constants.ExtractionSource(chosen.String)
		doc.ChosenSource = &src
	}
	doc.TextProcessingError = nullString(textErr)
	doc.ProcessingError = nullString(processingErr)
	return &doc, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
