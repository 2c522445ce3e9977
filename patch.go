package rustwave

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type (
	// Patch is a named preset: a mapping from parameter names to values, as
	// stored in .yml preset files. Values are clamped when applied, so a
	// hand-edited file can never push the engine out of range.
	Patch struct {
		Name     string             `yaml:",omitempty"`
		Comment  string             `yaml:",omitempty"`
		Settings map[string]float32 `yaml:",flow"`
	}

	// Setting is one resolved (parameter, value) pair of a Patch.
	Setting struct {
		Param Param
		Value float32
	}
)

// ParsePatch parses a YAML preset. Unknown parameter names are an error, so
// typos in preset files surface at load time instead of silently doing
// nothing.
func ParsePatch(data []byte) (Patch, error) {
	var p Patch
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Patch{}, fmt.Errorf("could not parse patch: %w", err)
	}
	for name := range p.Settings {
		if _, ok := ParamByName(name); !ok {
			return Patch{}, fmt.Errorf("patch %q: unknown parameter %q", p.Name, name)
		}
	}
	return p, nil
}

// LoadPatch reads and parses a preset file.
func LoadPatch(path string) (Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Patch{}, fmt.Errorf("could not read patch file: %w", err)
	}
	p, err := ParsePatch(data)
	if err != nil {
		return Patch{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Resolved returns the settings of the patch in a deterministic order
// (sorted by parameter), ready to be published to an engine.
func (p Patch) Resolved() []Setting {
	settings := make([]Setting, 0, len(p.Settings))
	for name, value := range p.Settings {
		param, ok := ParamByName(name)
		if !ok {
			continue // ParsePatch catches these; be lenient here
		}
		settings = append(settings, Setting{Param: param, Value: param.Clamp(value)})
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Param < settings[j].Param })
	return settings
}

// MarshalYAML-friendly export of a snapshot back into a Patch, for saving the
// current sound as a preset.
func PatchFromSnapshot(name string, s *Snapshot) Patch {
	settings := make(map[string]float32, NumParams)
	for param := Param(0); param < NumParams; param++ {
		settings[param.Range().Name] = s.Value(param)
	}
	return Patch{Name: name, Settings: settings}
}

// SavePatch writes the patch as YAML.
func SavePatch(path string, p Patch) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("could not marshal patch: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write patch file: %w", err)
	}
	return nil
}
