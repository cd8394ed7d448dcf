package vectorstore

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Qdrant talks to Qdrant over gRPC with cosine distance collections.
type Qdrant struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// NewQdrant dials addr and waits until the collections API answers.
func NewQdrant(ctx context.Context, addr string) (*Qdrant, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dial qdrant %s: %w", addr, err)
	}
	q := &Qdrant{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}
	if err := dial(ctx, "qdrant", q.Ping); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("vectorstore: connect qdrant %s: %w", addr, err)
	}
	return q, nil
}

func (q *Qdrant) Upsert(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	dim, err := dimension(records)
	if err != nil {
		return err
	}
	if err := q.ensureCollection(ctx, collection, dim); err != nil {
		return err
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Vector},
				},
			},
			Payload: qdrantPayload(r),
		}
	}

	wait := true
	_, err = q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: qdrant upsert %d points: %w", len(records), err)
	}
	return nil
}

func (q *Qdrant) Search(ctx context.Context, collection string, vector []float32, k int) ([]Hit, error) {
	if len(vector) == 0 || k <= 0 {
		return []Hit{}, nil
	}
	exists, err := q.exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []Hit{}, nil
	}
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: qdrant search: %w", err)
	}
	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		hits[i] = qdrantHit(r.GetId().GetUuid(), r.GetScore(), r.GetPayload())
	}
	return hits, nil
}

func (q *Qdrant) DeleteDocument(ctx context.Context, collection string, documentID int64) error {
	exists, err := q.exists(ctx, collection)
	if err != nil || !exists {
		return err
	}
	wait := true
	_, err = q.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{
					Must: []*pb.Condition{integerMatch(fieldDocumentID, documentID)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: qdrant delete document %d: %w", documentID, err)
	}
	return nil
}

func (q *Qdrant) DropCollection(ctx context.Context, collection string) error {
	exists, err := q.exists(ctx, collection)
	if err != nil || !exists {
		return err
	}
	if _, err := q.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: collection}); err != nil {
		return fmt.Errorf("vectorstore: qdrant delete collection %s: %w", collection, err)
	}
	return nil
}

func (q *Qdrant) Ping(ctx context.Context) error {
	_, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	return err
}

func (q *Qdrant) Close() error {
	return q.conn.Close()
}

func (q *Qdrant) exists(ctx context.Context, collection string) (bool, error) {
	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("vectorstore: qdrant list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == collection {
			return true, nil
		}
	}
	return false, nil
}

func (q *Qdrant) ensureCollection(ctx context.Context, collection string, dim int) error {
	exists, err := q.exists(ctx, collection)
	if err != nil || exists {
		return err
	}
	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dim),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: qdrant create collection %s: %w", collection, err)
	}
	return nil
}

func qdrantPayload(r Record) map[string]*pb.Value {
	return map[string]*pb.Value{
		fieldChatID:     {Kind: &pb.Value_IntegerValue{IntegerValue: r.Metadata.ChatID}},
		fieldDocumentID: {Kind: &pb.Value_IntegerValue{IntegerValue: r.Metadata.DocumentID}},
		fieldChunkIndex: {Kind: &pb.Value_IntegerValue{IntegerValue: int64(r.Metadata.ChunkIndex)}},
		fieldSource:     {Kind: &pb.Value_StringValue{StringValue: r.Metadata.Source}},
		fieldContent:    {Kind: &pb.Value_StringValue{StringValue: r.Text}},
	}
}

func qdrantHit(id string, score float32, payload map[string]*pb.Value) Hit {
	return Hit{
		ID:    id,
		Score: score,
		Text:  payload[fieldContent].GetStringValue(),
		Metadata: Metadata{
			ChatID:     payload[fieldChatID].GetIntegerValue(),
			DocumentID: payload[fieldDocumentID].GetIntegerValue(),
			ChunkIndex: int(payload[fieldChunkIndex].GetIntegerValue()),
			Source:     payload[fieldSource].GetStringValue(),
		},
	}
}

func integerMatch(key string, value int64) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Integer{Integer: value},
				},
			},
		},
	}
}
