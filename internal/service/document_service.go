package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/observability"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
	"github.com/peterfiasco/easylawBe-sub000/internal/storage"
	apperrors "github.com/peterfiasco/easylawBe-sub000/pkg/util/errorutil"
)

const octetStream = "application/octet-stream"

// DocumentUpload is an attachment as received from a client.
type DocumentUpload struct {
	Name     string
	MimeType string
	Category domain.DocumentCategory
	Content  []byte
}

// DocumentService stores and reads request attachments. Attachments are
// immutable once written.
type DocumentService struct {
	documents repository.DocumentRepository
	store     storage.ContentStore
	maxBytes  int64
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// DocumentDependencies bundles collaborators for DocumentService.
type DocumentDependencies struct {
	DocumentRepo repository.DocumentRepository
	// Store receives payloads when set; otherwise payloads are kept inline.
	Store    storage.ContentStore
	MaxBytes int64
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// NewDocumentService constructs the service.
func NewDocumentService(deps DocumentDependencies) *DocumentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		documents: deps.DocumentRepo,
		store:     deps.Store,
		maxBytes:  deps.MaxBytes,
		logger:    logger,
		metrics:   deps.Metrics,
	}
}

// Attach validates upload and appends it to req. The returned attachment
// carries metadata only.
func (s *DocumentService) Attach(ctx context.Context, req *domain.ServiceRequest, uploadedBy string, upload DocumentUpload) (*domain.DocumentAttachment, error) {
	name := strings.TrimSpace(filepath.Base(upload.Name))
	fields := map[string]any{}
	if name == "" || name == "." || name == string(filepath.Separator) {
		fields["name"] = "is required"
	}
	if len(upload.Content) == 0 {
		fields["content"] = "is empty"
	} else if s.maxBytes > 0 && int64(len(upload.Content)) > s.maxBytes {
		fields["content"] = fmt.Sprintf("exceeds %d bytes", s.maxBytes)
	}
	category := upload.Category
	if category == "" {
		category = domain.CategoryOther
	}
	if !category.Valid() {
		fields["category"] = "is not a known category"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid document", fields)
	}

	mimeType := strings.TrimSpace(upload.MimeType)
	if mimeType == "" || mimeType == octetStream {
		mimeType = mimetype.Detect(upload.Content).String()
	}

	sum := blake2b.Sum256(upload.Content)
	checksum := hex.EncodeToString(sum[:])

	doc := &domain.DocumentAttachment{
		RequestID:  req.ID,
		Name:       name,
		MimeType:   mimeType,
		SizeBytes:  int64(len(upload.Content)),
		Checksum:   checksum,
		Category:   category,
		UploadedBy: uploadedBy,
	}

	backend := "inline"
	if s.store != nil {
		key := storage.ObjectKey(req.ReferenceNumber, checksum, name)
		if err := s.store.Put(ctx, key, mimeType, upload.Content); err != nil {
			return nil, apperrors.NewUpstream("object storage", err)
		}
		doc.StorageKey = &key
		backend = "object_storage"
	} else {
		doc.Content = upload.Content
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}
	s.metrics.DocumentAttached(backend)
	s.logger.Info("document attached",
		zap.String("reference_number", req.ReferenceNumber),
		zap.String("document_id", doc.ID),
		zap.Int64("size_bytes", doc.SizeBytes),
		zap.String("backend", backend))

	doc.Content = nil
	return doc, nil
}

// ListMetadata returns the attachments of a request in upload order, without payloads.
func (s *DocumentService) ListMetadata(ctx context.Context, requestID string) ([]domain.DocumentAttachment, error) {
	docs, err := s.documents.ListMetadata(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []domain.DocumentAttachment{}
	}
	return docs, nil
}

// Open returns one attachment with its payload.
func (s *DocumentService) Open(ctx context.Context, requestID, documentID string) (*domain.DocumentAttachment, error) {
	if _, err := uuid.Parse(documentID); err != nil {
		return nil, apperrors.NewNotFound("document", map[string]any{"document_id": documentID})
	}
	doc, err := s.documents.Get(ctx, requestID, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("document", map[string]any{"document_id": documentID})
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc.StorageKey == nil {
		return doc, nil
	}
	if s.store == nil {
		return nil, apperrors.NewUpstream("object storage", errors.New("payload is offloaded but no store is configured"))
	}
	content, err := s.store.Get(ctx, *doc.StorageKey)
	if err != nil {
		return nil, apperrors.NewUpstream("object storage", err)
	}
	doc.Content = content
	return doc, nil
}
