package milvus

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/chemassist/backend/pkg/logger"
)

// ChunkRecord is the persisted chunk payload. Filtering and scrolling depend
// on these exact field names, so they are part of the storage contract.
type ChunkRecord struct {
	ChunkID      string
	Embedding    []float32
	Text         string
	DocID        string
	ChunkIndex   int
	SectionTitle string
	DocumentType string
	MatrixType   string
	Revision     string
	SourceFile   string
	UploadDate   string
}

type SearchResult struct {
	ChunkID      string
	Text         string
	DocID        string
	SectionTitle string
	DocumentType string
	SourceFile   string
	Score        float32
}

// Filter narrows a search to one document type or an allow-list of types.
// The zero value applies no filter.
type Filter struct {
	DocumentType  string
	DocumentTypes []string
}

type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

var payloadFields = []string{
	"chunk_id", "text", "doc_id", "chunk_index", "section_title",
	"document_type", "matrix_type", "revision", "source_file", "upload_date",
}

func NewClient(endpoint, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	varchar := func(name string, maxLength int) *entity.Field {
		return &entity.Field{
			Name:     name,
			DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{
				"max_length": strconv.Itoa(maxLength),
			},
		}
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Laboratory compliance document chunks",
		Fields: []*entity.Field{
			{
				Name:       "chunk_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(m.vectorDim),
				},
			},
			varchar("text", 8192),
			varchar("doc_id", 64),
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
			varchar("section_title", 256),
			varchar("document_type", 32),
			varchar("matrix_type", 32),
			varchar("revision", 64),
			varchar("source_file", 512),
			varchar("upload_date", 64),
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 1024)
	if err != nil {
		return fmt.Errorf("failed to create index definition: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

// Count reports the number of stored chunk vectors.
func (m *Client) Count(ctx context.Context) (int64, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.collectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}
	count, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count: %w", err)
	}
	return count, nil
}

func (m *Client) Upsert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	chunkIDs := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	texts := make([]string, len(records))
	docIDs := make([]string, len(records))
	chunkIndexes := make([]int64, len(records))
	sectionTitles := make([]string, len(records))
	documentTypes := make([]string, len(records))
	matrixTypes := make([]string, len(records))
	revisions := make([]string, len(records))
	sourceFiles := make([]string, len(records))
	uploadDates := make([]string, len(records))

	for i, r := range records {
		chunkIDs[i] = r.ChunkID
		embeddings[i] = r.Embedding
		texts[i] = r.Text
		docIDs[i] = r.DocID
		chunkIndexes[i] = int64(r.ChunkIndex)
		sectionTitles[i] = r.SectionTitle
		documentTypes[i] = r.DocumentType
		matrixTypes[i] = r.MatrixType
		revisions[i] = r.Revision
		sourceFiles[i] = r.SourceFile
		uploadDates[i] = r.UploadDate
	}

	_, err := m.client.Insert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("chunk_id", chunkIDs),
		entity.NewColumnFloatVector("embedding", m.vectorDim, embeddings),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnVarChar("doc_id", docIDs),
		entity.NewColumnInt64("chunk_index", chunkIndexes),
		entity.NewColumnVarChar("section_title", sectionTitles),
		entity.NewColumnVarChar("document_type", documentTypes),
		entity.NewColumnVarChar("matrix_type", matrixTypes),
		entity.NewColumnVarChar("revision", revisions),
		entity.NewColumnVarChar("source_file", sourceFiles),
		entity.NewColumnVarChar("upload_date", uploadDates),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	if err := m.client.Flush(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Chunks inserted into vector index", zap.Int("count", len(records)))

	return nil
}

func buildExpr(filter Filter) string {
	if filter.DocumentType != "" {
		return fmt.Sprintf(`document_type == "%s"`, filter.DocumentType)
	}
	if len(filter.DocumentTypes) > 0 {
		quoted := make([]string, len(filter.DocumentTypes))
		for i, t := range filter.DocumentTypes {
			quoted[i] = fmt.Sprintf(`"%s"`, t)
		}
		return fmt.Sprintf("document_type in [%s]", strings.Join(quoted, ", "))
	}
	return ""
}

func (m *Client) Search(ctx context.Context, queryEmbedding []float32, topK int, filter Filter) ([]SearchResult, error) {
	expr := buildExpr(filter)

	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		expr,
		[]string{"chunk_id", "text", "doc_id", "section_title", "document_type", "source_file"},
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0)
	for _, sr := range searchResult {
		for i := 0; i < sr.ResultCount; i++ {
			get := func(field string) string {
				col := sr.Fields.GetColumn(field)
				if col == nil {
					return ""
				}
				v, err := col.Get(i)
				if err != nil {
					return ""
				}
				s, _ := v.(string)
				return s
			}

			results = append(results, SearchResult{
				ChunkID:      get("chunk_id"),
				Text:         get("text"),
				DocID:        get("doc_id"),
				SectionTitle: get("section_title"),
				DocumentType: get("document_type"),
				SourceFile:   get("source_file"),
				Score:        sr.Scores[i],
			})
		}
	}

	logger.Debug("Vector search completed",
		zap.Int("topK", topK),
		zap.Int("results", len(results)),
		zap.String("filter", expr),
	)

	return results, nil
}

func (m *Client) DeleteByDoc(ctx context.Context, docID string) error {
	expr := fmt.Sprintf(`doc_id == "%s"`, docID)
	if err := m.client.Delete(ctx, m.collectionName, "", expr); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	logger.Info("Document chunks deleted", zap.String("doc_id", docID))
	return nil
}

// ScrollByDoc returns up to limit chunk records for one document, ordered by
// chunk_index.
func (m *Client) ScrollByDoc(ctx context.Context, docID string, limit int) ([]ChunkRecord, error) {
	expr := fmt.Sprintf(`doc_id == "%s"`, docID)

	rs, err := m.client.Query(ctx, m.collectionName, nil, expr, payloadFields, client.WithLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}

	records := resultSetToRecords(rs)
	sort.Slice(records, func(i, j int) bool { return records[i].ChunkIndex < records[j].ChunkIndex })
	return records, nil
}

// Scroll pages through all stored chunks; used to list distinct documents.
func (m *Client) Scroll(ctx context.Context, offset, limit int) ([]ChunkRecord, error) {
	rs, err := m.client.Query(
		ctx,
		m.collectionName,
		nil,
		`chunk_id != ""`,
		payloadFields,
		client.WithOffset(int64(offset)),
		client.WithLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scroll chunks: %w", err)
	}
	return resultSetToRecords(rs), nil
}

func resultSetToRecords(rs client.ResultSet) []ChunkRecord {
	if len(rs) == 0 {
		return nil
	}

	n := rs[0].Len()
	getString := func(field string, i int) string {
		col := rs.GetColumn(field)
		if col == nil {
			return ""
		}
		v, err := col.Get(i)
		if err != nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	records := make([]ChunkRecord, 0, n)
	for i := 0; i < n; i++ {
		idx := 0
		if col := rs.GetColumn("chunk_index"); col != nil {
			if v, err := col.Get(i); err == nil {
				if iv, ok := v.(int64); ok {
					idx = int(iv)
				}
			}
		}
		records = append(records, ChunkRecord{
			ChunkID:      getString("chunk_id", i),
			Text:         getString("text", i),
			DocID:        getString("doc_id", i),
			ChunkIndex:   idx,
			SectionTitle: getString("section_title", i),
			DocumentType: getString("document_type", i),
			MatrixType:   getString("matrix_type", i),
			Revision:     getString("revision", i),
			SourceFile:   getString("source_file", i),
			UploadDate:   getString("upload_date", i),
		})
	}
	return records
}
