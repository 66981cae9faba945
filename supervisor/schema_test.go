package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeInputSchema(t *testing.T) {
	info := ToolInfo{
		Name: "brave_search",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"query": {"type": "string"},
				"count": {"type": "integer"}
			}
		}`),
	}

	schema, err := info.DescribeInputSchema()
	require.NoError(t, err)
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"query", "count"}, info.PropertyNames())
}

func TestDescribeInputSchema_Empty(t *testing.T) {
	info := ToolInfo{Name: "noop"}
	schema, err := info.DescribeInputSchema()
	require.NoError(t, err)
	assert.NotNil(t, schema)
	assert.Nil(t, info.PropertyNames())
}
