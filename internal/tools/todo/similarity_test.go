package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdenticalContentIsOne(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("fix the login bug", "fix the login bug"))
}

func TestSimilarityCaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Fix The Login Bug", "  fix the login bug  "))
}

func TestSimilarityNearSubsetScoresHigh(t *testing.T) {
	assert.GreaterOrEqual(t, Similarity("fix the login bug", "fix login bug"), SimilarityThreshold)
}

func TestSimilarityUnrelatedContentScoresLow(t *testing.T) {
	assert.Less(t, Similarity("fix the login bug", "deploy the release to production"), SimilarityThreshold)
}

func TestSimilarityBothEmptyIsOne(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
}

func TestSimilarityOneEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "fix the bug"))
}
