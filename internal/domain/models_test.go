package domain

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestionState_Invariant(t *testing.T) {
	tests := []struct {
		name    string
		state   IngestionState
		running bool
	}{
		{"idle", IngestionState{IsRunning: false, Status: StatusIdle}, false},
		{"processing", IngestionState{IsRunning: true, Status: StatusProcessing}, true},
		{"completed", IngestionState{IsRunning: false, Status: StatusCompleted}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.running, tt.state.IsRunning)
			processing := tt.state.Status == StatusProcessing
			assert.Equalf(t, tt.state.IsRunning, processing, "invariant broken: IsRunning=%v Status=%v", tt.state.IsRunning, tt.state.Status)
		})
	}
}

func TestKind_ToHTTP(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindTooLarge, http.StatusRequestEntityTooLarge},
		{KindUpstream, http.StatusServiceUnavailable},
		{KindPartialSuccess, http.StatusMultiStatus},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.ToHTTP())
		})
	}
}

func TestHTTPStatus_UpstreamOverride(t *testing.T) {
	err := NewUpstream(http.StatusConflict, "Error from retrieval: conflict", nil)
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewInternal("persistence failure", cause)
	assert.True(t, errors.Is(err, cause))
}
