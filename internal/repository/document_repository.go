package repository

import (
	"context"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

// DocumentRepository persists request attachments. There is no update or delete.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.DocumentAttachment) error
	// ListMetadata returns attachments in upload order without their payloads.
	ListMetadata(ctx context.Context, requestID string) ([]domain.DocumentAttachment, error)
	// Get returns one attachment including any inline payload.
	Get(ctx context.Context, requestID, documentID string) (*domain.DocumentAttachment, error)
}

type documentRepository struct {
	db DB
}

// NewDocumentRepository constructs repository.
func NewDocumentRepository(db DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *domain.DocumentAttachment) error {
	const query = `
        INSERT INTO request_documents (request_id, name, mime_type, size_bytes, checksum, category, uploaded_by, storage_key, content)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, uploaded_at`
	return r.db.QueryRow(ctx, query,
		doc.RequestID,
		doc.Name,
		doc.MimeType,
		doc.SizeBytes,
		doc.Checksum,
		doc.Category,
		doc.UploadedBy,
		doc.StorageKey,
		doc.Content,
	).Scan(&doc.ID, &doc.UploadedAt)
}

func (r *documentRepository) ListMetadata(ctx context.Context, requestID string) ([]domain.DocumentAttachment, error) {
	const query = `
        SELECT id, request_id, name, mime_type, size_bytes, checksum, category, uploaded_by, storage_key, uploaded_at
        FROM request_documents WHERE request_id=$1 ORDER BY seq ASC`
	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DocumentAttachment
	for rows.Next() {
		var doc domain.DocumentAttachment
		if err := rows.Scan(
			&doc.ID,
			&doc.RequestID,
			&doc.Name,
			&doc.MimeType,
			&doc.SizeBytes,
			&doc.Checksum,
			&doc.Category,
			&doc.UploadedBy,
			&doc.StorageKey,
			&doc.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (r *documentRepository) Get(ctx context.Context, requestID, documentID string) (*domain.DocumentAttachment, error) {
	const query = `
        SELECT id, request_id, name, mime_type, size_bytes, checksum, category, uploaded_by, storage_key, content, uploaded_at
        FROM request_documents WHERE request_id=$1 AND id=$2`
	var doc domain.DocumentAttachment
	if err := r.db.QueryRow(ctx, query, requestID, documentID).Scan(
		&doc.ID,
		&doc.RequestID,
		&doc.Name,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.Checksum,
		&doc.Category,
		&doc.UploadedBy,
		&doc.StorageKey,
		&doc.Content,
		&doc.UploadedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}
