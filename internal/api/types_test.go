package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult(NewValidationError("filer_serial", "is required"))

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, KindValidation, result.Error.Kind)
	assert.Equal(t, "filer_serial", result.Error.Field)
	assert.False(t, result.Error.Retryable)

	transient := NewErrorResult(&TransientError{Message: "timeout"})
	assert.True(t, transient.Error.Retryable)
}

func TestToolResultText(t *testing.T) {
	text, err := NewSuccessResult("plain").Text()
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	text, err = NewSuccessResult(map[string]int{"count": 2}).Text()
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 2}`, text)

	text, err = NewErrorResult(errors.New("boom")).Text()
	require.NoError(t, err)
	assert.Equal(t, "boom", text)
}

func TestArgsAccessors(t *testing.T) {
	args := Args{
		"name":    "vol1",
		"flag":    true,
		"limit":   float64(25),
		"frac":    2.5,
		"num":     json.Number("7"),
		"native":  12,
		"tags":    []interface{}{"a", 1, "b"},
		"strings": []string{"x"},
	}

	assert.True(t, args.Has("name"))
	assert.False(t, args.Has("missing"))
	assert.Equal(t, "vol1", args.String("name"))
	assert.Equal(t, "", args.String("flag"))
	assert.True(t, args.Bool("flag"))
	assert.False(t, args.Bool("missing"))
	assert.Equal(t, 25, args.Int("limit", 0))
	assert.Equal(t, 9, args.Int("frac", 9))
	assert.Equal(t, 7, args.Int("num", 0))
	assert.Equal(t, 12, args.Int("native", 0))
	assert.Equal(t, 50, args.Int("missing", 50))
	assert.Equal(t, 2.5, args.Float("frac", 0))
	assert.Equal(t, 12.0, args.Float("native", 0))
	assert.Equal(t, 7.0, args.Float("num", 0))
	assert.Equal(t, 1.0, args.Float("missing", 1))
	assert.Equal(t, 1.0, args.Float("name", 1))
	assert.Equal(t, []string{"a", "b"}, args.Strings("tags"))
	assert.Equal(t, []string{"x"}, args.Strings("strings"))
}

func TestToolDescriptorParameter(t *testing.T) {
	desc := ToolDescriptor{
		Name:       "get_filer",
		Parameters: []ParameterMetadata{{Name: "identifier", Type: TypeString, Required: true}},
	}

	p, ok := desc.Parameter("identifier")
	assert.True(t, ok)
	assert.True(t, p.Required)

	_, ok = desc.Parameter("other")
	assert.False(t, ok)
}
