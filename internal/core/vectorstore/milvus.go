package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docchat/config"
	"docchat/pkg/logger"

	milvusclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	milvusentity "github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	fieldID         = "id"
	fieldChatID     = "chat_id"
	fieldDocumentID = "document_id"
	fieldChunkIndex = "chunk_index"
	fieldContent    = "content"
	fieldSource     = "source"
	fieldEmbedding  = "embedding"

	maxContentLen = 65535
	maxSourceLen  = 1024
)

type MilvusOptions struct {
	Address        string
	MetricType     string
	M              int
	EfConstruction int
	SearchEf       int
}

// Milvus stores one collection per chat with an HNSW index on the embedding.
type Milvus struct {
	cli  milvusclient.Client
	opts MilvusOptions

	mu     sync.Mutex
	loaded map[string]bool
}

// NewMilvus connects with retries; Milvus may take tens of seconds to boot.
func NewMilvus(ctx context.Context, opts MilvusOptions) (*Milvus, error) {
	var cli milvusclient.Client
	err := dial(ctx, "milvus", func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		c, err := milvusclient.NewClient(attemptCtx, milvusclient.Config{Address: opts.Address})
		if err != nil {
			return err
		}
		cli = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connect milvus %s: %w", opts.Address, err)
	}
	return &Milvus{cli: cli, opts: opts, loaded: map[string]bool{}}, nil
}

func (m *Milvus) Upsert(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	dim, err := dimension(records)
	if err != nil {
		return err
	}
	if err := m.ensureCollection(ctx, collection, dim); err != nil {
		return err
	}

	n := len(records)
	ids := make([]string, n)
	chatIDs := make([]int64, n)
	docIDs := make([]int64, n)
	chunkIdxs := make([]int32, n)
	contents := make([]string, n)
	sources := make([]string, n)
	vectors := make([][]float32, n)
	for i, r := range records {
		ids[i] = r.ID
		chatIDs[i] = r.Metadata.ChatID
		docIDs[i] = r.Metadata.DocumentID
		chunkIdxs[i] = int32(r.Metadata.ChunkIndex)
		contents[i] = truncateBytes(r.Text, maxContentLen)
		sources[i] = truncateBytes(r.Metadata.Source, maxSourceLen)
		vectors[i] = r.Vector
	}

	_, err = m.cli.Upsert(ctx, collection, "",
		milvusentity.NewColumnVarChar(fieldID, ids),
		milvusentity.NewColumnInt64(fieldChatID, chatIDs),
		milvusentity.NewColumnInt64(fieldDocumentID, docIDs),
		milvusentity.NewColumnInt32(fieldChunkIndex, chunkIdxs),
		milvusentity.NewColumnVarChar(fieldContent, contents),
		milvusentity.NewColumnVarChar(fieldSource, sources),
		milvusentity.NewColumnFloatVector(fieldEmbedding, dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("vectorstore: milvus upsert %d rows into %s: %w", n, collection, err)
	}
	if err := m.cli.Flush(ctx, collection, false); err != nil {
		return fmt.Errorf("vectorstore: milvus flush %s: %w", collection, err)
	}
	return nil
}

func (m *Milvus) Search(ctx context.Context, collection string, vector []float32, k int) ([]Hit, error) {
	if len(vector) == 0 || k <= 0 {
		return []Hit{}, nil
	}
	exists, err := m.cli.HasCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: milvus has collection: %w", err)
	}
	if !exists {
		return []Hit{}, nil
	}
	if err := m.load(ctx, collection); err != nil {
		return nil, err
	}

	searchParam, err := milvusentity.NewIndexHNSWSearchParam(max(m.opts.SearchEf, k))
	if err != nil {
		return nil, err
	}
	start := time.Now()
	results, err := m.cli.Search(
		ctx,
		collection,
		nil, // partitions
		"",
		[]string{fieldChatID, fieldDocumentID, fieldChunkIndex, fieldContent, fieldSource},
		[]milvusentity.Vector{milvusentity.FloatVector(vector)},
		fieldEmbedding,
		milvusentity.MetricType(m.opts.MetricType),
		k,
		searchParam,
	)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: milvus search %s: %w", collection, err)
	}
	logger.WithFields(map[string]interface{}{
		"module":     config.ModuleVectorStore,
		"collection": collection,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("milvus search done")

	if len(results) == 0 {
		return []Hit{}, nil
	}
	return milvusHits(results[0]), nil
}

func milvusHits(it milvusclient.SearchResult) []Hit {
	hits := make([]Hit, it.ResultCount)
	if ids, ok := it.IDs.(*milvusentity.ColumnVarChar); ok {
		for i := range hits {
			hits[i].ID = ids.Data()[i]
		}
	}
	for i := range hits {
		if i < len(it.Scores) {
			hits[i].Score = it.Scores[i]
		}
	}
	for _, field := range it.Fields {
		switch col := field.(type) {
		case *milvusentity.ColumnInt64:
			for i := range hits {
				switch col.Name() {
				case fieldChatID:
					hits[i].Metadata.ChatID = col.Data()[i]
				case fieldDocumentID:
					hits[i].Metadata.DocumentID = col.Data()[i]
				}
			}
		case *milvusentity.ColumnInt32:
			if col.Name() == fieldChunkIndex {
				for i := range hits {
					hits[i].Metadata.ChunkIndex = int(col.Data()[i])
				}
			}
		case *milvusentity.ColumnVarChar:
			for i := range hits {
				switch col.Name() {
				case fieldContent:
					hits[i].Text = col.Data()[i]
				case fieldSource:
					hits[i].Metadata.Source = col.Data()[i]
				}
			}
		}
	}
	return hits
}

func (m *Milvus) DeleteDocument(ctx context.Context, collection string, documentID int64) error {
	exists, err := m.cli.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("vectorstore: milvus has collection: %w", err)
	}
	if !exists {
		return nil
	}
	if err := m.cli.Delete(ctx, collection, "", documentExpr(documentID)); err != nil {
		return fmt.Errorf("vectorstore: milvus delete document %d: %w", documentID, err)
	}
	return nil
}

func (m *Milvus) DropCollection(ctx context.Context, collection string) error {
	exists, err := m.cli.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("vectorstore: milvus has collection: %w", err)
	}
	m.mu.Lock()
	delete(m.loaded, collection)
	m.mu.Unlock()
	if !exists {
		return nil
	}
	if err := m.cli.DropCollection(ctx, collection); err != nil {
		return fmt.Errorf("vectorstore: milvus drop %s: %w", collection, err)
	}
	return nil
}

func (m *Milvus) Ping(ctx context.Context) error {
	_, err := m.cli.ListCollections(ctx)
	return err
}

func (m *Milvus) Close() error {
	return m.cli.Close()
}

func (m *Milvus) ensureCollection(ctx context.Context, collection string, dim int) error {
	exists, err := m.cli.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("vectorstore: milvus has collection: %w", err)
	}
	if exists {
		return m.load(ctx, collection)
	}
	if err := m.cli.CreateCollection(ctx, milvusSchema(collection, dim), 2); err != nil {
		return fmt.Errorf("vectorstore: milvus create %s: %w", collection, err)
	}
	idx, err := milvusentity.NewIndexHNSW(milvusentity.MetricType(m.opts.MetricType), m.opts.M, m.opts.EfConstruction)
	if err != nil {
		return err
	}
	if err := m.cli.CreateIndex(ctx, collection, fieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("vectorstore: milvus index %s: %w", collection, err)
	}
	logger.WithFields(map[string]interface{}{
		"module":     config.ModuleVectorStore,
		"collection": collection,
		"dim":        dim,
	}).Info("milvus collection created")
	return m.load(ctx, collection)
}

func (m *Milvus) load(ctx context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded[collection] {
		return nil
	}
	if err := m.cli.LoadCollection(ctx, collection, false); err != nil {
		return fmt.Errorf("vectorstore: milvus load %s: %w", collection, err)
	}
	m.loaded[collection] = true
	return nil
}

func milvusSchema(collection string, dim int) *milvusentity.Schema {
	return milvusentity.NewSchema().WithName(collection).WithDescription("document chunks").
		WithField(milvusentity.NewField().WithName(fieldID).WithDataType(milvusentity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
		WithField(milvusentity.NewField().WithName(fieldChatID).WithDataType(milvusentity.FieldTypeInt64)).
		WithField(milvusentity.NewField().WithName(fieldDocumentID).WithDataType(milvusentity.FieldTypeInt64)).
		WithField(milvusentity.NewField().WithName(fieldChunkIndex).WithDataType(milvusentity.FieldTypeInt32)).
		WithField(milvusentity.NewField().WithName(fieldContent).WithDataType(milvusentity.FieldTypeVarChar).WithMaxLength(maxContentLen)).
		WithField(milvusentity.NewField().WithName(fieldSource).WithDataType(milvusentity.FieldTypeVarChar).WithMaxLength(maxSourceLen)).
		WithField(milvusentity.NewField().WithName(fieldEmbedding).WithDataType(milvusentity.FieldTypeFloatVector).WithDim(int64(dim)))
}

func documentExpr(documentID int64) string {
	return fmt.Sprintf("%s == %d", fieldDocumentID, documentID)
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
