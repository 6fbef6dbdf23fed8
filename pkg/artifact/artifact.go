// Package artifact loads trained cost models: feature order, encoders,
// scaler and regressor, described by an HCL manifest.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lesotho-health/cost-api/pkg/encoding"
	"github.com/lesotho-health/cost-api/pkg/types"
)

// Artifact is a fully validated, ready to use trained model. It is read-only
// after Load and safe for concurrent use.
type Artifact struct {
	Manifest   Manifest
	Location   string
	Features   []string
	Scheme     encoding.Scheme
	Encoder    encoding.Encoder
	Vocabulary map[string][]string
	Scaler     *StandardScaler
	Model      Regressor
}

// Load fetches and decodes the named artifact from src. A missing artifact
// yields an error matching ErrArtifactNotFound; any defect in an artifact
// that exists yields one matching ErrMalformedArtifact.
func Load(ctx context.Context, src Source, name string) (*Artifact, error) {
	bundle, err := src.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return Decode(bundle, name)
}

// Decode validates a bundle and assembles the artifact
func Decode(b *Bundle, name string) (*Artifact, error) {
	a, err := decode(b, name)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrMalformedArtifact, b.Location, err)
	}
	return a, nil
}

func decode(b *Bundle, name string) (*Artifact, error) {
	manifest, err := ParseManifest(b.Manifest, ManifestFileName, name)
	if err != nil {
		return nil, err
	}

	scheme, err := encoding.ParseScheme(manifest.Encoding)
	if err != nil {
		return nil, err
	}

	features, err := readFeatures(b, manifest.FeaturesFile)
	if err != nil {
		return nil, err
	}

	var vocab map[string][]string
	if manifest.EncodersFile != "" {
		data, err := b.ReadFile(manifest.EncodersFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &vocab); err != nil {
			return nil, fmt.Errorf("invalid encoders file: %w", err)
		}
	} else if scheme == encoding.SchemeLabel {
		return nil, fmt.Errorf("label encoding requires encoders_file")
	}

	if err := checkScheme(scheme, features, vocab); err != nil {
		return nil, err
	}

	encoder, err := encoding.NewEncoder(scheme, vocab)
	if err != nil {
		return nil, err
	}

	data, err := b.ReadFile(manifest.ScalerFile)
	if err != nil {
		return nil, err
	}
	scaler, err := ParseScaler(data)
	if err != nil {
		return nil, err
	}
	if scaler.Dim() != len(features) {
		return nil, fmt.Errorf("scaler has %d features, feature list has %d", scaler.Dim(), len(features))
	}

	data, err = b.ReadFile(manifest.ModelFile)
	if err != nil {
		return nil, err
	}
	model, err := ParseRegressor(manifest.ModelType, data)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(len(features)); err != nil {
		return nil, err
	}
	manifest.ModelType = model.Kind()

	return &Artifact{
		Manifest:   *manifest,
		Location:   b.Location,
		Features:   features,
		Scheme:     scheme,
		Encoder:    encoder,
		Vocabulary: vocab,
		Scaler:     scaler,
		Model:      model,
	}, nil
}

func readFeatures(b *Bundle, file string) ([]string, error) {
	data, err := b.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var features []string
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, fmt.Errorf("invalid feature list: %w", err)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("feature list is empty")
	}
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if f == "" {
			return nil, fmt.Errorf("feature list contains an empty name")
		}
		if seen[f] {
			return nil, fmt.Errorf("duplicate feature %q", f)
		}
		seen[f] = true
	}
	return features, nil
}

// checkScheme rejects artifacts whose feature list was produced by a
// different encoding than the manifest declares
func checkScheme(scheme encoding.Scheme, features []string, vocab map[string][]string) error {
	for _, f := range features {
		for _, field := range types.CategoricalFields {
			switch scheme {
			case encoding.SchemeLabel:
				if strings.HasPrefix(f, field+"_") {
					return fmt.Errorf("feature %q is one-hot encoded but manifest declares label encoding", f)
				}
				if f == field && len(vocab[field]) == 0 {
					return fmt.Errorf("no encoder classes for categorical feature %q", f)
				}
			case encoding.SchemeOneHot:
				if f == field {
					return fmt.Errorf("feature %q is label encoded but manifest declares one-hot encoding", f)
				}
			}
		}
	}
	return nil
}

// DisplayName is the human readable model name
func (a *Artifact) DisplayName() string {
	return a.Manifest.DisplayName
}
