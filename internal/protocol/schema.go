package protocol

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Schemas holds the compiled wire-format schemas. The transport validates
// inbound ACT messages against them before anything reaches the engine.
type Schemas struct {
	Hello     *jsonschema.Schema
	Welcome   *jsonschema.Schema
	Knowledge *jsonschema.Schema
	Act       *jsonschema.Schema
	Result    *jsonschema.Schema
}

func CompileSchemas() (*Schemas, error) {
	c := jsonschema.NewCompiler()
	names := []string{"hello", "welcome", "knowledge", "act", "result"}
	for _, name := range names {
		raw, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.schema.json", name))
		if err != nil {
			return nil, err
		}
		url := fmt.Sprintf("https://gridfall.ai/schemas/%s.schema.json", name)
		if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, err
		}
	}
	var s Schemas
	for _, b := range []struct {
		name string
		dst  **jsonschema.Schema
	}{
		{"hello", &s.Hello},
		{"welcome", &s.Welcome},
		{"knowledge", &s.Knowledge},
		{"act", &s.Act},
		{"result", &s.Result},
	} {
		compiled, err := c.Compile(fmt.Sprintf("https://gridfall.ai/schemas/%s.schema.json", b.name))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", b.name, err)
		}
		*b.dst = compiled
	}
	return &s, nil
}
