package vectorstore

import (
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkFromPayload(t *testing.T) {
	payload := map[string]*pb.Value{
		"chunk_id":    {Kind: &pb.Value_StringValue{StringValue: "doc.pdf_chunk_120"}},
		"source":      {Kind: &pb.Value_StringValue{StringValue: "doc.pdf"}},
		"text":        {Kind: &pb.Value_StringValue{StringValue: "hello world"}},
		"start_index": {Kind: &pb.Value_IntegerValue{IntegerValue: 120}},
	}

	chunk := chunkFromPayload(payload, 0.42)

	assert.Equal(t, "doc.pdf_chunk_120", chunk.ID)
	assert.Equal(t, "doc.pdf", chunk.Source)
	assert.Equal(t, "hello world", chunk.Text)
	assert.Equal(t, 120, chunk.StartIndex)
	assert.Equal(t, 0.42, chunk.Distance)
}

func TestChunkFromPayload_MissingFields(t *testing.T) {
	chunk := chunkFromPayload(map[string]*pb.Value{}, 1.0)
	assert.Zero(t, chunk.ID)
	assert.Zero(t, chunk.Source)
	assert.Zero(t, chunk.Text)
	assert.Zero(t, chunk.StartIndex)
}

func TestUint32ptr(t *testing.T) {
	p := uint32ptr(256)
	require.NotNil(t, p)
	assert.Equal(t, uint32(256), *p)
}
