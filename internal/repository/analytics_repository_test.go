package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportCatalog(t *testing.T) {
	names := ReportNames()
	require.Len(t, names, 30)
	assert.True(t, IsReport("workload-heatmap"))
	assert.True(t, IsReport("request-processing-time"))
	assert.False(t, IsReport("drop-tables"))

	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestReportQueriesUseCurrentStatusVocabulary(t *testing.T) {
	for name, query := range reportQueries {
		assert.NotContains(t, query, "'approved'", name)
		assert.NotContains(t, query, "'completed' AND r.", name)
		assert.NotContains(t, query, "role_id", name)
		assert.False(t, strings.Contains(query, "assigned_to_id"), name)
	}
	assert.Contains(t, reportQueries["request-processing-time"], "EXTRACT(EPOCH")
}

func TestAnalyticsRun_UnknownReport(t *testing.T) {
	repo := NewAnalyticsRepository(nil)
	_, err := repo.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownReport)
}
