package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemassist/backend/internal/vector/milvus"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeSearcher struct {
	results   []milvus.SearchResult
	err       error
	gotTopK   int
	gotFilter milvus.Filter
}

func (f *fakeSearcher) Search(ctx context.Context, emb []float32, topK int, filter milvus.Filter) ([]milvus.SearchResult, error) {
	f.gotTopK = topK
	f.gotFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestRetrieveFiltersAndSorts(t *testing.T) {
	searcher := &fakeSearcher{
		results: []milvus.SearchResult{
			{ChunkID: "a", Text: "low", Score: 0.1},
			{ChunkID: "b", Text: "mid", Score: 0.5},
			{ChunkID: "c", Text: "high", Score: 0.9},
		},
	}
	r := New(&fakeEmbedder{}, searcher, 5, 20, 0.25)

	chunks, err := r.Retrieve(context.Background(), "acetone flash point", ModeGeneral, nil)
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, "c", chunks[0].ChunkID)
	assert.Equal(t, "b", chunks[1].ChunkID)
}

func TestRetrieveModeFilter(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		docTypes []string
		want     milvus.Filter
	}{
		{"regulatory forces regulation type", ModeRegulatory, nil, milvus.Filter{DocumentType: DocTypeRegulation}},
		{"sds extraction forces sds type", ModeSDSExtract, nil, milvus.Filter{DocumentType: DocTypeSDS}},
		{"general with allow-list", ModeGeneral, []string{"SOP", "METHOD"}, milvus.Filter{DocumentTypes: []string{"SOP", "METHOD"}}},
		{"general unfiltered", ModeGeneral, nil, milvus.Filter{}},
		{"regulatory ignores caller allow-list", ModeRegulatory, []string{"SOP"}, milvus.Filter{DocumentType: DocTypeRegulation}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			r := New(&fakeEmbedder{}, searcher, 5, 20, 0.25)

			_, err := r.Retrieve(context.Background(), "limit for lead", tt.mode, tt.docTypes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, searcher.gotFilter)
		})
	}
}

func TestRetrieveCountingQueryWidensTopK(t *testing.T) {
	searcher := &fakeSearcher{}
	r := New(&fakeEmbedder{}, searcher, 5, 20, 0.25)

	_, err := r.Retrieve(context.Background(), "How many hazard codes are listed in the acetone SDS?", ModeGeneral, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, searcher.gotTopK)

	_, err = r.Retrieve(context.Background(), "What is the flash point of acetone?", ModeGeneral, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, searcher.gotTopK)
}

func TestIsCountingQuery(t *testing.T) {
	assert.True(t, IsCountingQuery("How many H codes does acetone have?"))
	assert.True(t, IsCountingQuery("Quanti codici H ha il toluene?"))
	assert.True(t, IsCountingQuery("List all precaution statements"))
	assert.True(t, IsCountingQuery("elenca tutte le frasi H"))
	assert.False(t, IsCountingQuery("What is the boiling point of ethanol?"))
}

func TestRetrieveEmbedderErrorPropagates(t *testing.T) {
	r := New(&fakeEmbedder{err: errors.New("gateway down")}, &fakeSearcher{}, 5, 20, 0.25)

	_, err := r.Retrieve(context.Background(), "anything", ModeGeneral, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed query")
}

func TestRetrieveSearcherErrorPropagates(t *testing.T) {
	r := New(&fakeEmbedder{}, &fakeSearcher{err: errors.New("index down")}, 5, 20, 0.25)

	_, err := r.Retrieve(context.Background(), "anything", ModeGeneral, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to search index")
}

func TestUniqueSourceFiles(t *testing.T) {
	chunks := []ScoredChunk{
		{SourceFile: "acetone_sds.pdf"},
		{SourceFile: "reach_annex.pdf"},
		{SourceFile: "acetone_sds.pdf"},
	}
	assert.Equal(t, 2, UniqueSourceFiles(chunks))
	assert.Equal(t, 0, UniqueSourceFiles(nil))
}
