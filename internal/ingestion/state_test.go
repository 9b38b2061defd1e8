package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

func TestStateService_StartStop(t *testing.T) {
	s := NewStateService()

	assert.False(t, s.IsRunning())
	assert.Equal(t, domain.StatusIdle, s.GetStatus().Status)

	require.True(t, s.StartIngestion())
	assert.True(t, s.IsRunning())
	assert.False(t, s.StartIngestion(), "second StartIngestion should fail while running")

	s.StopIngestion(&domain.IngestionResult{DocumentsProcessed: 2, ChunksAdded: 10}, nil)

	st := s.GetStatus()
	assert.False(t, st.IsRunning)
	assert.Equal(t, domain.StatusCompleted, st.Status)
	assert.Equal(t, 2, st.DocumentsProcessed)
	assert.Equal(t, 10, st.ChunksAdded)

	assert.True(t, s.StartIngestion(), "expected StartIngestion to succeed again after completion")
}

func TestStateService_StopWithErrors(t *testing.T) {
	s := NewStateService()
	s.StartIngestion()
	s.StopIngestion(&domain.IngestionResult{}, []string{"boom"})

	st := s.GetStatus()
	assert.Equal(t, domain.StatusCompletedWithErrors, st.Status)
	assert.Len(t, st.Errors, 1)
}
