package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateError(t *testing.T) {
	assert.Equal(t, "short", truncateError("short", 10))
	assert.Equal(t, "0123456789", truncateError(strings.Repeat("0123456789", 3), 10))
}

func TestSchema_CreatesBothMigrationHeadTables(t *testing.T) {
	assert.Contains(t, schema, "data_access_tracking")
	assert.Contains(t, schema, "last_accessed_at")
	assert.Contains(t, schema, "pipeline_runs")
	assert.Contains(t, schema, "principal_configuration")
}
