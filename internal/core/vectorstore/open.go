package vectorstore

import (
	"context"
	"fmt"

	"docchat/config"
)

// Open builds the backend selected by vector_store.type.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	vs := cfg.VectorStore
	switch vs.Type {
	case "milvus":
		return NewMilvus(ctx, MilvusOptions{
			Address:        vs.Milvus.Address,
			MetricType:     vs.Milvus.IndexHNSWConfig.MetricType,
			M:              vs.Milvus.IndexHNSWConfig.M,
			EfConstruction: vs.Milvus.IndexHNSWConfig.EfConstruction,
			SearchEf:       vs.Milvus.SearchEf,
		})
	case "qdrant":
		return NewQdrant(ctx, vs.Qdrant.Address)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("vectorstore: unknown type %q", vs.Type)
	}
}
