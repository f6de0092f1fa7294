package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/resourcekit/config"
	"github.com/kbukum/resourcekit/resource"
)

// view is the printed form of a resource.
type view struct {
	Kind       string         `json:"kind" yaml:"kind"`
	Location   string         `json:"location" yaml:"location"`
	ETag       string         `json:"etag,omitempty" yaml:"etag,omitempty"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

func viewOf(r resource.Resource) view {
	return view{
		Kind:       r.Kind(),
		Location:   r.Location(),
		ETag:       r.ETag(),
		Properties: r.Properties(),
	}
}

// render encodes v as JSON or YAML. YAML goes through JSON first so
// json.Number values print as numbers.
func render(v any, format string) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	if format != config.OutputYAML {
		return string(data), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return "", err
	}
	blockStyle(&node)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// parseAssignments turns key=value arguments into properties. Values that
// parse as JSON keep their type; anything else is a string.
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil || dec.More() {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}

// parseData decodes a -data JSON object.
func parseData(data string) (map[string]any, error) {
	if data == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid -data: %w", err)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
