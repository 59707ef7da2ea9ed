package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	apperrors "github.com/peterfiasco/easylawBe-sub000/pkg/util/errorutil"
)

type mapStore struct {
	objects map[string][]byte
	putErr  error
}

func (m *mapStore) Put(_ context.Context, key, _ string, content []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = append([]byte(nil), content...)
	return nil
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	content, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return content, nil
}

func TestDocumentsOffloadedToObjectStore(t *testing.T) {
	objects := &mapStore{objects: map[string][]byte{}}
	h := newHarness(t, func(d *RequestDependencies) {
		d.Documents = NewDocumentService(DocumentDependencies{
			DocumentRepo: d.Documents.documents,
			Store:        objects,
			MaxBytes:     1024,
		})
	})
	req := h.createBR(t)
	ctx := context.Background()

	doc, err := h.requests.AddDocument(ctx, owner, req.ReferenceNumber, DocumentUpload{
		Name: "cac.pdf", MimeType: "application/pdf", Category: domain.CategoryIncorporation, Content: []byte("%PDF-1.7"),
	})
	require.NoError(t, err)
	require.NotNil(t, doc.StorageKey)
	assert.True(t, strings.HasPrefix(*doc.StorageKey, "requests/"+req.ReferenceNumber+"/"))
	assert.Contains(t, objects.objects, *doc.StorageKey)

	opened, err := h.requests.GetDocument(ctx, owner, req.ReferenceNumber, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), opened.Content)
}

func TestDocumentStoreFailureIsUpstream(t *testing.T) {
	objects := &mapStore{objects: map[string][]byte{}, putErr: errors.New("bucket unavailable")}
	h := newHarness(t, func(d *RequestDependencies) {
		d.Documents = NewDocumentService(DocumentDependencies{
			DocumentRepo: d.Documents.documents,
			Store:        objects,
		})
	})
	req := h.createBR(t)

	_, err := h.requests.AddDocument(context.Background(), owner, req.ReferenceNumber, DocumentUpload{
		Name: "cac.pdf", Content: []byte("%PDF-1.7"),
	})
	assert.Equal(t, apperrors.CodeUpstream, domainErr(t, err).Code)

	got, err := h.requests.Get(context.Background(), owner, req.ReferenceNumber)
	require.NoError(t, err)
	assert.Empty(t, got.Documents)
}
