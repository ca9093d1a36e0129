package fieldmap

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// document is the on-disk layout shared by the CUE and YAML forms.
type document struct {
	Entities map[string]Entity `json:"entities" yaml:"entities"`
}

// Load reads a registry from a .cue, .yaml or .yml file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var doc document
	switch ext := filepath.Ext(path); ext {
	case ".cue":
		doc, err = decodeCUE(path, data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported registry format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	if len(doc.Entities) == 0 {
		return nil, fmt.Errorf("registry %s declares no entities", path)
	}
	return New(doc.Entities), nil
}

func decodeCUE(path string, data []byte) (document, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return document{}, err
	}

	var doc document
	entities := value.LookupPath(cue.ParsePath("entities"))
	if !entities.Exists() {
		return doc, nil
	}
	if err := entities.Decode(&doc.Entities); err != nil {
		return document{}, err
	}
	return doc, nil
}
