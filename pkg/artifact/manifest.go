package artifact

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// ManifestFileName is the manifest every artifact location must provide
const ManifestFileName = "manifest.hcl"

// Manifest describes an artifact and names its component files
type Manifest struct {
	Name         string             `json:"name"`
	Version      string             `json:"version"`
	ModelType    string             `json:"model_type"`
	DisplayName  string             `json:"display_name"`
	Encoding     string             `json:"encoding"`
	ModelFile    string             `json:"model_file"`
	ScalerFile   string             `json:"scaler_file"`
	FeaturesFile string             `json:"features_file"`
	EncodersFile string             `json:"encoders_file,omitempty"`
	Performance  map[string]float64 `json:"performance,omitempty"`
}

// Files lists the component files the manifest references
func (m Manifest) Files() []string {
	files := []string{m.FeaturesFile, m.ScalerFile, m.ModelFile}
	if m.EncodersFile != "" {
		files = append(files, m.EncodersFile)
	}
	return files
}

type manifestFile struct {
	Artifacts []manifestBlock `hcl:"artifact,block"`
}

type manifestBlock struct {
	Name         string    `hcl:"name,label"`
	Version      string    `hcl:"version"`
	ModelType    string    `hcl:"model_type"`
	DisplayName  string    `hcl:"display_name,optional"`
	Encoding     string    `hcl:"encoding"`
	ModelFile    string    `hcl:"model_file"`
	ScalerFile   string    `hcl:"scaler_file"`
	FeaturesFile string    `hcl:"features_file"`
	EncodersFile string    `hcl:"encoders_file,optional"`
	Performance  cty.Value `hcl:"performance,optional"`
}

// ParseManifest decodes an HCL manifest and selects the artifact block named
// name. An empty name selects the only block.
func ParseManifest(src []byte, filename, name string) (*Manifest, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse errors: %s", diags.Error())
	}

	var mf manifestFile
	if diags := gohcl.DecodeBody(file.Body, nil, &mf); diags.HasErrors() {
		return nil, fmt.Errorf("decode errors: %s", diags.Error())
	}

	block, err := selectBlock(mf.Artifacts, name)
	if err != nil {
		return nil, err
	}

	performance, err := performanceMetrics(block.Performance)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Name:         block.Name,
		Version:      block.Version,
		ModelType:    block.ModelType,
		DisplayName:  block.DisplayName,
		Encoding:     block.Encoding,
		ModelFile:    block.ModelFile,
		ScalerFile:   block.ScalerFile,
		FeaturesFile: block.FeaturesFile,
		EncodersFile: block.EncodersFile,
		Performance:  performance,
	}
	if m.DisplayName == "" {
		m.DisplayName = m.ModelType
	}
	return m, nil
}

func selectBlock(blocks []manifestBlock, name string) (*manifestBlock, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("manifest declares no artifact block")
	}
	if name == "" {
		if len(blocks) > 1 {
			return nil, fmt.Errorf("manifest declares %d artifacts; a name is required", len(blocks))
		}
		return &blocks[0], nil
	}
	for i := range blocks {
		if blocks[i].Name == name {
			return &blocks[i], nil
		}
	}
	return nil, fmt.Errorf("manifest has no artifact named %q", name)
}

// performanceMetrics converts the optional performance map to Go
func performanceMetrics(val cty.Value) (map[string]float64, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("performance must be a literal map")
	}

	raw, ok := ctyToGo(val).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("performance must be a map of numbers, got %s", val.Type().FriendlyName())
	}

	metrics := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("performance metric %q must be a number", k)
		}
		metrics[k] = f
	}
	return metrics, nil
}

// ctyToGo converts a cty.Value to plain Go values. Numbers always become
// float64 since metrics are rarely integral.
func ctyToGo(val cty.Value) interface{} {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}

	switch {
	case val.Type() == cty.String:
		return val.AsString()
	case val.Type() == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f
	case val.Type() == cty.Bool:
		return val.True()
	case val.Type().IsListType() || val.Type().IsTupleType() || val.Type().IsSetType():
		var arr []interface{}
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			arr = append(arr, ctyToGo(v))
		}
		return arr
	case val.Type().IsMapType() || val.Type().IsObjectType():
		m := make(map[string]interface{})
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			m[k.AsString()] = ctyToGo(v)
		}
		return m
	default:
		return val.GoString()
	}
}
