package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/turbohq/turbo-agent/internal/api"
)

// generateSchema reflects a JSON schema from a Go input struct using
// jsonschema struct tags.
func generateSchema[T any]() (json.RawMessage, error) {
	reflector := &invopop.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	return json.Marshal(m)
}

// apiTool is a schema-validated tool backed by the Turbo API. Input is
// validated against the compiled schema before any network I/O.
type apiTool[T any] struct {
	name        string
	description string
	kind        Kind
	fallback    string
	schema      json.RawMessage
	compiled    *jsonschema.Schema
	logger      *slog.Logger
	run         func(ctx context.Context, in T) (any, error)
}

// newTool builds an apiTool for input type T. The name is bare; the
// registered name carries the namespace. Schema reflection failures are
// programming errors and panic at startup.
func newTool[T any](name, description string, kind Kind, fallback string, logger *slog.Logger, run func(ctx context.Context, in T) (any, error)) Tool {
	schema, err := generateSchema[T]()
	if err != nil {
		panic(fmt.Sprintf("tool %s: %v", name, err))
	}
	compiled, err := jsonschema.CompileString(name+".schema.json", string(schema))
	if err != nil {
		panic(fmt.Sprintf("tool %s: compile schema: %v", name, err))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &apiTool[T]{
		name:        Qualified(name),
		description: description,
		kind:        kind,
		fallback:    fallback,
		schema:      schema,
		compiled:    compiled,
		logger:      logger.With("tool", name),
		run:         run,
	}
}

func (t *apiTool[T]) Name() string            { return t.name }
func (t *apiTool[T]) Description() string     { return t.description }
func (t *apiTool[T]) Schema() json.RawMessage { return t.schema }
func (t *apiTool[T]) Kind() Kind              { return t.kind }

func (t *apiTool[T]) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	var decoded any
	if err := json.Unmarshal(input, &decoded); err != nil {
		return Errorf("Invalid input: %v. Check the tool's parameter descriptions and try again.", err), nil
	}
	if err := t.compiled.Validate(decoded); err != nil {
		return Errorf("Invalid input: %v. Check the tool's parameter descriptions and try again.", err), nil
	}

	var in T
	if err := json.Unmarshal(input, &in); err != nil {
		return Errorf("Invalid input: %v. Check the tool's parameter descriptions and try again.", err), nil
	}

	value, err := t.run(ctx, in)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			t.logger.Warn("tool API error", "error", err)
			return &Result{Content: apiErr.AgentMessage(), IsError: true}, nil
		}
		t.logger.Error("unexpected tool error", "error", err)
		if t.fallback != "" {
			return Errorf("Error: Unexpected failure. %s", t.fallback), nil
		}
		return Errorf("Error: %v", err), nil
	}

	return formatResult(value)
}

// formatResult renders a handler's value as indented JSON.
func formatResult(value any) (*Result, error) {
	if raw, ok := value.(json.RawMessage); ok {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return &Result{Content: string(raw)}, nil
		}
		buf, err := json.MarshalIndent(decoded, "", "  ")
		if err != nil {
			return &Result{Content: string(raw)}, nil
		}
		return &Result{Content: string(buf)}, nil
	}
	buf, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &Result{Content: string(buf)}, nil
}
