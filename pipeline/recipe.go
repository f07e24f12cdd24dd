package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scanprep/pix"
	"gopkg.in/yaml.v3"
)

// Recipe is an ordered list of operations applied one after another.
//
//	name: receipt
//	steps:
//	  - op: grayscale
//	  - op: contrast
//	    contrast: 40
//	  - op: resize
//	    width: 1200
//	    height: 1600
type Recipe struct {
	Name  string   `yaml:"name,omitempty"`
	Steps []Params `yaml:"steps"`
}

// ParseRecipe decodes a YAML recipe and validates every step.
// Unknown keys are rejected to catch misspelled parameters.
func ParseRecipe(data []byte) (*Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var r Recipe
	if err := dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty recipe", pix.ErrInvalidParameter)
		}
		return nil, fmt.Errorf("%w: decoding recipe: %v", pix.ErrInvalidParameter, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadRecipe reads and parses the YAML recipe at path.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe: %w", err)
	}
	r, err := ParseRecipe(data)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", path, err)
	}
	return r, nil
}

// Validate checks that the recipe has steps and that every step builds a filter.
func (r *Recipe) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("%w: recipe %q has no steps", pix.ErrInvalidParameter, r.Name)
	}
	for i, p := range r.Steps {
		if _, err := p.Filter(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, p.Op, err)
		}
	}
	return nil
}

// Marshal encodes the recipe as YAML.
func (r *Recipe) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// OCRPreset returns the preprocessing chain used before text recognition:
// grayscale, inverted adaptive threshold, speck removal and sharpening.
func OCRPreset() *Recipe {
	return &Recipe{
		Name: "ocr",
		Steps: []Params{
			{Op: OpGrayscale},
			{Op: OpAdaptiveThreshold, BlockSize: 15, Offset: 10, Invert: true},
			{Op: OpMorphology, Morph: "open", Size: 2},
			{Op: OpSharpen},
		},
	}
}
