package sweep

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of an experiment file.
type File struct {
	Experiments []*Experiment `json:"experiments" yaml:"experiments"`
}

type fileNodes struct {
	Experiments []yaml.Node `yaml:"experiments"`
}

type jsonNodes struct {
	Experiments []json.RawMessage `json:"experiments"`
}

type nameOnly struct {
	Name string `json:"name" yaml:"name"`
}

// LoadExperiments reads experiments from a YAML or JSON file (chosen by the
// .json extension) and merges them into a copy of base. An entry whose name
// matches an experiment in base overlays it field by field; other entries
// define new experiments. Every resulting experiment is validated.
func LoadExperiments(path string, base map[string]*Experiment) (map[string]*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read experiment file")
	}

	exps := make(map[string]*Experiment, len(base))
	for name, e := range base {
		exps[name] = e.Clone()
	}

	if isJSON(path) {
		err = mergeJSON(data, exps)
	} else {
		err = mergeYAML(data, exps)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse experiment file %s", path)
	}

	for _, name := range Names(exps) {
		if err := exps[name].Validate(); err != nil {
			return nil, errors.Wrapf(err, "invalid experiment in %s", path)
		}
	}
	return exps, nil
}

func mergeYAML(data []byte, exps map[string]*Experiment) error {
	var nodes fileNodes
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return err
	}
	for i := range nodes.Experiments {
		node := &nodes.Experiments[i]
		var id nameOnly
		if err := node.Decode(&id); err != nil {
			return err
		}
		e := target(exps, id.Name)
		if err := node.Decode(e); err != nil {
			return errors.Wrapf(err, "experiment %q", id.Name)
		}
		e.Name = id.Name
		exps[id.Name] = e
	}
	return nil
}

func mergeJSON(data []byte, exps map[string]*Experiment) error {
	var nodes jsonNodes
	if err := json.Unmarshal(data, &nodes); err != nil {
		return err
	}
	for _, raw := range nodes.Experiments {
		var id nameOnly
		if err := json.Unmarshal(raw, &id); err != nil {
			return err
		}
		e := target(exps, id.Name)
		if err := json.Unmarshal(raw, e); err != nil {
			return errors.Wrapf(err, "experiment %q", id.Name)
		}
		e.Name = id.Name
		exps[id.Name] = e
	}
	return nil
}

// target returns the experiment an entry is decoded onto.
func target(exps map[string]*Experiment, name string) *Experiment {
	if e, ok := exps[name]; ok {
		return e
	}
	return &Experiment{Name: name, Dimensions: map[Axis][]int{}}
}

// Save writes the experiment to path as YAML, or JSON for a .json path.
func (e *Experiment) Save(path string) error {
	data, err := e.Marshal(isJSON(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write experiment file")
	}
	return nil
}

// Marshal encodes the experiment wrapped in a File, as JSON or YAML.
func (e *Experiment) Marshal(asJSON bool) ([]byte, error) {
	f := File{Experiments: []*Experiment{e}}
	if asJSON {
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to serialize experiment")
		}
		return data, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, errors.Wrap(err, "failed to serialize experiment")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to serialize experiment")
	}
	return buf.Bytes(), nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
