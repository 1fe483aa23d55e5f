package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/boothmap/internal/domain"
)

func TestEvaluateCompletionFull(t *testing.T) {
	status, reason := EvaluateCompletion(12, 24)
	assert.Equal(t, domain.StatusCompleted, status)
	assert.Empty(t, reason)
}

func TestEvaluateCompletionShortfall(t *testing.T) {
	status, reason := EvaluateCompletion(12, 22)
	assert.Equal(t, domain.StatusNotCompleted, status)
	assert.Equal(t, "Only 22 booths selected out of 24 required", reason)
}

func TestEvaluateCompletionZeroSelected(t *testing.T) {
	status, reason := EvaluateCompletion(3, 0)
	assert.Equal(t, domain.StatusNotCompleted, status)
	assert.Equal(t, "Only 0 booths selected out of 6 required", reason)
}

func TestEvaluateCompletionSingleCluster(t *testing.T) {
	status, _ := EvaluateCompletion(1, 2)
	assert.Equal(t, domain.StatusCompleted, status)

	status, reason := EvaluateCompletion(1, 1)
	assert.Equal(t, domain.StatusNotCompleted, status)
	assert.NotEmpty(t, reason)
}
