// Package workload loads and runs HCL-described array workloads: a set of
// named array creations and engine operations executed against one root
// factory. It exists for the CLI; library users drive factories directly.
package workload

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/ndforge/ndforge/pairs"
)

// Config is the decoded form of one workload file.
type Config struct {
	// Engine selects the engine by name ("native", "webgpu").
	// Empty means native.
	Engine string `hcl:"engine,optional"`

	// Device names the default allocation device ("cpu", "webgpu", ...).
	// Empty means the engine's own device.
	Device string `hcl:"device,optional"`

	Arrays []*ArrayBlock `hcl:"array,block"`
	Ops    []*OpBlock    `hcl:"op,block"`
}

// ArrayBlock describes one named array creation.
type ArrayBlock struct {
	Name    string    `hcl:"name,label"`
	Creator string    `hcl:"creator"`
	Shape   []int     `hcl:"shape,optional"`
	DType   string    `hcl:"dtype,optional"`
	Params  cty.Value `hcl:"params,optional"`
}

// OpBlock describes one named engine operation over previously created
// arrays. Its outputs are registered under the block's name.
type OpBlock struct {
	Name      string    `hcl:"name,label"`
	Operation string    `hcl:"operation"`
	Inputs    []string  `hcl:"inputs"`
	Params    cty.Value `hcl:"params,optional"`
}

// Load parses a workload file.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse workload %s: %w", path, diags)
	}
	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decode workload %s: %w", path, diags)
	}
	return &cfg, nil
}

// LoadBytes parses a workload from memory; filename is used in diagnostics.
func LoadBytes(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse workload %s: %w", filename, diags)
	}
	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decode workload %s: %w", filename, diags)
	}
	return &cfg, nil
}

// paramsList converts an HCL params object into the ordered key-value list
// the engine boundary expects. Keys are sorted so a workload's parameter
// order is stable across runs.
func paramsList(v cty.Value) (*pairs.List[string, any], error) {
	params := pairs.New[string, any]()
	if v.IsNull() {
		return params, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("params must be an object, got %s", v.Type().FriendlyName())
	}

	values := v.AsValueMap()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		av := values[k]
		switch {
		case av.Type() == cty.Number:
			f, _ := av.AsBigFloat().Float64()
			params.Add(k, f)
		case av.Type() == cty.Bool:
			params.Add(k, av.True())
		case av.Type() == cty.String:
			params.Add(k, av.AsString())
		default:
			return nil, fmt.Errorf("param %q has unsupported type %s", k, av.Type().FriendlyName())
		}
	}
	return params, nil
}
