package supervisor

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// DescribeInputSchema decodes a tool's advertised JSON Schema into Go-native
// form, mirroring the teacher's Tool.Parameters field. Its caller is
// PropertyNames; no provider client re-marshals tool definitions from it.
func (t ToolInfo) DescribeInputSchema() (*jsonschema.Schema, error) {
	schema := &jsonschema.Schema{}
	if len(t.InputSchema) == 0 {
		return schema, nil
	}
	if err := json.Unmarshal(t.InputSchema, schema); err != nil {
		return nil, fmt.Errorf("decoding input schema for tool %s: %w", t.Name, err)
	}
	return schema, nil
}

// PropertyNames lists the argument names a tool's schema declares, in
// declaration order, for rendering in a system prompt or log line.
func (t ToolInfo) PropertyNames() []string {
	schema, err := t.DescribeInputSchema()
	if err != nil || schema.Properties == nil {
		return nil
	}
	var names []string
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
