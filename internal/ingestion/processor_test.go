package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemassist/backend/internal/audit"
	"github.com/chemassist/backend/internal/chunker"
	"github.com/chemassist/backend/internal/vector/milvus"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

type fakeStore struct {
	records []milvus.ChunkRecord
	deleted []string
}

func (f *fakeStore) Upsert(ctx context.Context, records []milvus.ChunkRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeStore) DeleteByDoc(ctx context.Context, docID string) error {
	f.deleted = append(f.deleted, docID)
	return nil
}

func (f *fakeStore) ScrollByDoc(ctx context.Context, docID string, limit int) ([]milvus.ChunkRecord, error) {
	var out []milvus.ChunkRecord
	for _, r := range f.records {
		if r.DocID == docID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Scroll(ctx context.Context, offset, limit int) ([]milvus.ChunkRecord, error) {
	if offset >= len(f.records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[offset:end], nil
}

func newProcessor(store *fakeStore) (*Processor, *audit.MemoryLogger) {
	log := audit.NewMemoryLogger()
	return NewProcessor(chunker.New(600, 3), &fakeEmbedder{}, store, log), log
}

func TestIngestStoresOrderedChunks(t *testing.T) {
	store := &fakeStore{}
	p, log := newProcessor(store)

	res, err := p.Ingest(context.Background(), Request{
		Name:         "acetone_sds.txt",
		Text:         "SECTION 1: IDENTIFICATION\nAcetone, technical grade.\nCAS 67-64-1.",
		DocumentType: "SDS",
		MatrixType:   "solvent",
		Revision:     "rev 3",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.DocID)
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, len(store.records), res.ChunksCreated)

	for i, r := range store.records {
		assert.Equal(t, res.DocID, r.DocID)
		assert.Equal(t, i, r.ChunkIndex)
		assert.Equal(t, "acetone_sds.txt", r.SourceFile)
		assert.Equal(t, "SDS", r.DocumentType)
		assert.NotEmpty(t, r.ChunkID)
		assert.NotEmpty(t, r.UploadDate)
	}

	events, _ := log.Events(context.Background(), 0)
	require.Len(t, events, 1)
	assert.Equal(t, "ingest", events[0].Action)
	assert.Equal(t, res.DocID, events[0].Details["doc_id"])
}

func TestIngestEmbeddingFailure(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(chunker.New(600, 3), &fakeEmbedder{err: errors.New("gateway down")}, store, audit.NewMemoryLogger())

	_, err := p.Ingest(context.Background(), Request{Name: "x.txt", Text: "some text"})
	require.Error(t, err)
	assert.Empty(t, store.records)
}

func TestListDocumentsDeduplicates(t *testing.T) {
	store := &fakeStore{}
	p, _ := newProcessor(store)

	for i := 0; i < 3; i++ {
		_, err := p.Ingest(context.Background(), Request{
			Name:         fmt.Sprintf("doc_%d.txt", i),
			Text:         "Short document body for listing.",
			DocumentType: "SOP",
		})
		require.NoError(t, err)
	}

	docs, err := p.ListDocuments(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 3)
	names := make(map[string]bool)
	for _, d := range docs {
		names[d.Name] = true
	}
	assert.Len(t, names, 3)
}

func TestDeleteDocumentAudited(t *testing.T) {
	store := &fakeStore{}
	p, log := newProcessor(store)

	require.NoError(t, p.DeleteDocument(context.Background(), "doc-123"))

	assert.Equal(t, []string{"doc-123"}, store.deleted)
	events, _ := log.Events(context.Background(), 0)
	require.Len(t, events, 1)
	assert.Equal(t, "delete", events[0].Action)
}

func TestPreviewSkipsEmptyChunks(t *testing.T) {
	store := &fakeStore{records: []milvus.ChunkRecord{
		{DocID: "d1", ChunkIndex: 0, Text: "first chunk"},
		{DocID: "d1", ChunkIndex: 1, Text: "   "},
		{DocID: "d1", ChunkIndex: 2, Text: "third chunk"},
		{DocID: "d2", ChunkIndex: 0, Text: "other doc"},
	}}
	p, _ := newProcessor(store)

	texts, err := p.Preview(context.Background(), "d1", 15)
	require.NoError(t, err)

	assert.Equal(t, []string{"first chunk", "third chunk"}, texts)
}
