package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbridge/ide-agent-bridge/internal/toolapi"
)

type fakeTool struct {
	name        string
	mainThread  bool
	schema      json.RawMessage
	invokeFn    func(ctx context.Context, argumentsJSON string) (interface{}, error)
}

func (f *fakeTool) Name() string { return f.name }

func (f *fakeTool) Describe() toolapi.Descriptor {
	schema := f.schema
	if schema == nil {
		schema = json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return toolapi.Descriptor{
		Name:               f.name,
		Description:        "fake tool for tests",
		RequiresMainThread: f.mainThread,
		ParameterSchema:    schema,
	}
}

func (f *fakeTool) Invoke(ctx context.Context, argumentsJSON string) (interface{}, error) {
	if f.invokeFn != nil {
		return f.invokeFn(ctx, argumentsJSON)
	}
	return map[string]string{"ok": "true"}, nil
}

func TestRegister_DuplicateNameRejected(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&fakeTool{name: "echo"}))

	err := r.Register(&fakeTool{name: "echo"})
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestRegister_EmptyNameRejected(t *testing.T) {
	r := New()
	err := r.Register(&fakeTool{name: ""})
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestRegister_NilToolRejected(t *testing.T) {
	r := New()
	err := r.Register(nil)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "tool", ve.Field)
}

func TestRegister_InvalidSchemaRejected(t *testing.T) {
	r := New()
	err := r.Register(&fakeTool{name: "bad", schema: json.RawMessage(`{"type":"not-a-real-type"}`)})
	require.Error(t, err)
}

func TestRegister_RejectedAfterFreeze(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&fakeTool{name: "echo"}))
	r.Freeze()

	err := r.Register(&fakeTool{name: "late"})
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "registry", ve.Field)
}

func TestDiscover_BumpsVersionAndSkipsFailures(t *testing.T) {
	r := New()
	factories := []func() (toolapi.Tool, error){
		func() (toolapi.Tool, error) { return &fakeTool{name: "a"}, nil },
		func() (toolapi.Tool, error) { return nil, assertErr("boom") },
		func() (toolapi.Tool, error) { return &fakeTool{name: "b"}, nil },
	}

	r.Discover(factories)
	assert.Equal(t, 1, r.Version())
	assert.Len(t, r.List().Tools, 2)

	r.Discover(factories)
	assert.Equal(t, 2, r.Version())
	assert.Len(t, r.List().Tools, 2)
}

func TestList_NormalizesSchema(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&fakeTool{name: "bare", schema: json.RawMessage(`{"type":"object"}`)}))

	catalog := r.List()
	require.Len(t, catalog.Tools, 1)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(catalog.Tools[0].ParameterSchema))
}

func TestGet_UnknownTool(t *testing.T) {
	r := New()
	_, err := r.Get("nope")
	require.Error(t, err)
	assert.IsType(t, ErrUnknownTool(""), err)
}

func TestRequiresMainThread(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&fakeTool{name: "bg", mainThread: false}))
	require.NoError(t, r.Register(&fakeTool{name: "ui", mainThread: true}))

	assert.False(t, r.RequiresMainThread("bg"))
	assert.True(t, r.RequiresMainThread("ui"))
	assert.False(t, r.RequiresMainThread("missing"))
}

func TestInvoke_ValidatesArgumentsAgainstSchema(t *testing.T) {
	r := New()
	schema := json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)
	require.NoError(t, r.Register(&fakeTool{name: "greet", schema: schema}))

	_, err := r.Invoke(context.Background(), "greet", `{}`)
	require.Error(t, err)

	result, err := r.Invoke(context.Background(), "greet", `{"name":"ada"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ok": "true"}, result)
}

func TestInvoke_UnknownTool(t *testing.T) {
	r := New()
	_, err := r.Invoke(context.Background(), "nope", `{}`)
	require.Error(t, err)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
