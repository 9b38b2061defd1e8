// Package vectorstore implements domain.Collection against Qdrant over
// gRPC. The collection name is parameterized per service (Ingestion
// writes, Retrieval reads) rather than hardcoded, and each point tracks
// chunk provenance via a "source" payload field so Ingestion can answer
// "has this file already been ingested" question without a separate
// document store.
package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

const dialTimeout = 10 * time.Second

var waitTrue = true

// Store is a Qdrant-backed domain.Collection.
type Store struct {
	conn           *grpc.ClientConn
	points         pb.PointsClient
	collections    pb.CollectionsClient
	collectionName string
}

// Dial connects to a Qdrant instance and returns a Store bound to
// collectionName. addr is host:port (CHROMA_HOST/CHROMA_PORT in docker
// mode); EnsureCollection must be called before first use.
func Dial(addr, collectionName string) (*Store, error) {
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(ctx, addr, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock())
	if err != nil {
		return nil, fmt.Errorf("%w: connect to qdrant at %s: %v", domain.ErrVectorStoreFailed, addr, err)
	}

	return &Store{
		conn:           conn,
		points:         pb.NewPointsClient(conn),
		collections:    pb.NewCollectionsClient(conn),
		collectionName: collectionName,
	}, nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection with the given vector
// dimension if it does not already exist, and recreates it if it
// exists with a mismatched dimension (embedding model changes between
// runs are not reconciled any other way).
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	listResp, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("%w: list collections: %v", domain.ErrVectorStoreFailed, err)
	}

	size := uint64(dimension)
	for _, col := range listResp.Collections {
		if col.Name != s.collectionName {
			continue
		}
		info, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: s.collectionName})
		if err == nil && info.Result != nil && info.Result.Config != nil && info.Result.Config.Params != nil {
			if vc := info.Result.Config.Params.GetVectorsConfig(); vc != nil {
				if params := vc.GetParams(); params != nil && params.Size == size {
					return nil
				}
			}
		}
		if err := s.DropCollection(ctx); err != nil {
			return err
		}
		break
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     size,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create collection %s: %v", domain.ErrVectorStoreFailed, s.collectionName, err)
	}
	return nil
}

// DropCollection deletes the collection. A missing collection is
// treated as success.
func (s *Store) DropCollection(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collectionName})
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "not found") && !strings.Contains(strings.ToLower(err.Error()), "doesn't exist") {
		return fmt.Errorf("%w: drop collection %s: %v", domain.ErrVectorStoreFailed, s.collectionName, err)
	}
	return nil
}

// Upsert writes chunks as points. Point IDs are deterministic UUIDs
// derived from the chunk id (<source>_chunk_<start_index> format) so
// re-ingesting the same document overwrites rather than duplicates.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		pointID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunk.ID)).String()

		points = append(points, &pb.PointStruct{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: chunk.Vector}},
			},
			Payload: map[string]*pb.Value{
				"chunk_id":    {Kind: &pb.Value_StringValue{StringValue: chunk.ID}},
				"source":      {Kind: &pb.Value_StringValue{StringValue: chunk.Source}},
				"text":        {Kind: &pb.Value_StringValue{StringValue: chunk.Text}},
				"start_index": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(chunk.StartIndex)}},
			},
		})
	}

	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collectionName,
		Points:         points,
		Wait:           &waitTrue,
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %d points: %v", domain.ErrVectorStoreFailed, len(points), err)
	}
	return nil
}

// Query performs a vector similarity search and returns topK chunks
// with their Distance populated, in the order Qdrant ranks them
// (closest first). Retrieval applies the distance threshold itself.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.Chunk, error) {
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collectionName,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") || strings.Contains(strings.ToLower(err.Error()), "doesn't exist") {
			return nil, fmt.Errorf("%w: %v", domain.ErrCollectionNotFound, err)
		}
		return nil, fmt.Errorf("%w: search: %v", domain.ErrVectorStoreFailed, err)
	}

	chunks := make([]domain.Chunk, 0, len(resp.Result))
	for _, point := range resp.Result {
		chunks = append(chunks, chunkFromPayload(point.Payload, float64(1-point.Score)))
	}
	return chunks, nil
}

// SourceNames returns the set of distinct "source" payload values
// across the whole collection, scrolling through all points. Used to
// enforce exactly-once-per-document ingestion.
func (s *Store) SourceNames(ctx context.Context) (map[string]bool, error) {
	names := make(map[string]bool)
	var offset *pb.PointId

	for {
		req := &pb.ScrollPoints{
			CollectionName: s.collectionName,
			Limit:          uint32ptr(256),
			WithPayload: &pb.WithPayloadSelector{
				SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
			},
			WithVectors: &pb.WithVectorsSelector{
				SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: false},
			},
		}
		if offset != nil {
			req.Offset = offset
		}

		resp, err := s.points.Scroll(ctx, req)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "not found") || strings.Contains(strings.ToLower(err.Error()), "doesn't exist") {
				return names, nil
			}
			return nil, fmt.Errorf("%w: scroll: %v", domain.ErrVectorStoreFailed, err)
		}

		for _, point := range resp.Result {
			if v, ok := point.Payload["source"]; ok {
				names[v.GetStringValue()] = true
			}
		}

		if resp.NextPageOffset == nil {
			break
		}
		offset = resp.NextPageOffset
	}

	return names, nil
}

func chunkFromPayload(payload map[string]*pb.Value, distance float64) domain.Chunk {
	chunk := domain.Chunk{Distance: distance}
	if v, ok := payload["chunk_id"]; ok {
		chunk.ID = v.GetStringValue()
	}
	if v, ok := payload["source"]; ok {
		chunk.Source = v.GetStringValue()
	}
	if v, ok := payload["text"]; ok {
		chunk.Text = v.GetStringValue()
	}
	if v, ok := payload["start_index"]; ok {
		chunk.StartIndex = int(v.GetIntegerValue())
	}
	return chunk
}

func uint32ptr(v uint32) *uint32 { return &v }
