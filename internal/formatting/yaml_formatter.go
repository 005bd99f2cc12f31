package formatting

import (
	"encoding/json"
	"fmt"

	"nmc-mcp/internal/api"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatTools formats the tool catalog as YAML
func (f *YAMLFormatter) FormatTools(tools []api.ToolDescriptor) error {
	return f.write(struct {
		Tools []toolView `yaml:"tools"`
		Count int        `yaml:"count"`
	}{toolViews(tools), len(tools)})
}

// FormatChecks formats connectivity check steps as YAML
func (f *YAMLFormatter) FormatChecks(steps []CheckStep) error {
	ok := true
	for _, s := range steps {
		ok = ok && s.OK
	}
	return f.write(struct {
		Steps []CheckStep `yaml:"steps"`
		OK    bool        `yaml:"ok"`
	}{checkViews(steps), ok})
}

// FormatTestResults formats self-test outcomes as YAML
func (f *YAMLFormatter) FormatTestResults(outcomes []TestOutcome) error {
	passed, failed := testSummary(outcomes)
	return f.write(struct {
		Results []TestOutcome `yaml:"results"`
		Passed  int           `yaml:"passed"`
		Failed  int           `yaml:"failed"`
	}{testViews(outcomes), passed, failed})
}

// FormatData formats generic data as YAML. Structs are routed through JSON
// first so their json tags name the keys.
func (f *YAMLFormatter) FormatData(data interface{}) error {
	var generic interface{}
	switch d := data.(type) {
	case string:
		if err := json.Unmarshal([]byte(d), &generic); err != nil {
			generic = d
		}
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to format YAML: %w", err)
		}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return fmt.Errorf("failed to format YAML: %w", err)
		}
	}
	return f.write(generic)
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

func (f *YAMLFormatter) write(data interface{}) error {
	yamlBytes, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	_, err = f.options.writer().Write(yamlBytes)
	return err
}
