package formatting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nmc-mcp/internal/api"
)

// PrettyJSON formats any value as indented JSON for human-readable display.
// It falls back to fmt's %v representation when v cannot be marshaled.
//
// Example:
//
//	data := map[string]interface{}{"name": "test", "value": 42}
//	fmt.Println(formatting.PrettyJSON(data))
//	// Output:
//	// {
//	//   "name": "test",
//	//   "value": 42
//	// }
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// CheckStep is one step of the connectivity check.
type CheckStep struct {
	Name     string        `json:"name" yaml:"name"`
	OK       bool          `json:"ok" yaml:"ok"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Duration time.Duration `json:"duration_ms" yaml:"duration_ms"`
}

// TestOutcome is the self-test result for one tool.
type TestOutcome struct {
	Tool     string        `json:"tool" yaml:"tool"`
	OK       bool          `json:"ok" yaml:"ok"`
	Kind     api.ErrorKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Message  string        `json:"message,omitempty" yaml:"message,omitempty"`
	Duration time.Duration `json:"duration_ms" yaml:"duration_ms"`
}

// toolView is the serializable form of a tool descriptor.
type toolView struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Permission  string      `json:"permission,omitempty" yaml:"permission,omitempty"`
	Parameters  []paramView `json:"parameters" yaml:"parameters"`
}

type paramView struct {
	Name        string      `json:"name" yaml:"name"`
	Type        string      `json:"type" yaml:"type"`
	Required    bool        `json:"required" yaml:"required"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Default     interface{} `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty" yaml:"enum,omitempty"`
	ItemType    string      `json:"item_type,omitempty" yaml:"item_type,omitempty"`
}

func toolViews(tools []api.ToolDescriptor) []toolView {
	views := make([]toolView, len(tools))
	for i, t := range tools {
		params := make([]paramView, len(t.Parameters))
		for j, p := range t.Parameters {
			params[j] = paramView{
				Name:        p.Name,
				Type:        p.Type,
				Required:    p.Required,
				Description: p.Description,
				Default:     p.Default,
				Enum:        p.Enum,
				ItemType:    p.ItemType,
			}
		}
		views[i] = toolView{Name: t.Name, Description: t.Description, Permission: t.Permission, Parameters: params}
	}
	return views
}

// checkViews and testViews convert durations to milliseconds for
// serialized output.
func checkViews(steps []CheckStep) []CheckStep {
	out := make([]CheckStep, len(steps))
	for i, s := range steps {
		s.Duration = s.Duration / time.Millisecond
		out[i] = s
	}
	return out
}

func testViews(outcomes []TestOutcome) []TestOutcome {
	out := make([]TestOutcome, len(outcomes))
	for i, o := range outcomes {
		o.Duration = o.Duration / time.Millisecond
		out[i] = o
	}
	return out
}

// testSummary counts passed and failed outcomes.
func testSummary(outcomes []TestOutcome) (passed, failed int) {
	for _, o := range outcomes {
		if o.OK {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// paramSignature renders a parameter list such as
// "filer_serial*: string, include_connections: boolean = false".
func paramSignature(params []api.ParameterMetadata) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		var b strings.Builder
		b.WriteString(p.Name)
		if p.Required {
			b.WriteString("*")
		}
		b.WriteString(": ")
		b.WriteString(p.Type)
		if p.ItemType != "" {
			b.WriteString("<" + p.ItemType + ">")
		}
		if len(p.Enum) > 0 {
			b.WriteString(" (" + strings.Join(p.Enum, "|") + ")")
		}
		if p.Default != nil {
			fmt.Fprintf(&b, " = %v", p.Default)
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, ", ")
}
