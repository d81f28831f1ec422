package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// schemaOf derives a tool's JSON Schema from its typed parameter struct
// at registry-build time, so ToolSpec.InputSchema is generated from Go
// types rather than hand-written, and stays in lockstep with the struct
// the handler actually decodes into.
func schemaOf(params any) json.RawMessage {
	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := r.Reflect(params)
	schema.Version = ""

	raw, err := schema.MarshalJSON()
	if err != nil {
		panic("tools: reflecting schema: " + err.Error())
	}
	return raw
}
