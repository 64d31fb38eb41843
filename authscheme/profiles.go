package authscheme

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultProfilesFile is the profiles file read when none is given.
const DefaultProfilesFile = "reqauth.yaml"

// Profile is one named scheme configuration. Fields other than type are
// the scheme payload, keyed as in Parse.
type Profile struct {
	Type   string         `yaml:"type"`
	Fields map[string]any `yaml:",inline"`
}

// Scheme resolves the profile into a Scheme.
func (p Profile) Scheme() (Scheme, error) {
	fields := p.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfiles, err)
	}

	return Parse(p.Type, string(data))
}

// Profiles maps profile names to their configuration.
type Profiles map[string]Profile

type profilesFile struct {
	Profiles Profiles `yaml:"profiles"`
}

// LoadProfiles reads a YAML profiles file.
//
//	profiles:
//	  github:
//	    type: bearer
//	    token: ${GITHUB_TOKEN}
//
// String values are expanded with os.ExpandEnv.
func LoadProfiles(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfiles, err)
	}

	return ParseProfiles(data)
}

// ParseProfiles decodes YAML profiles data. See LoadProfiles.
func ParseProfiles(data []byte) (Profiles, error) {
	var f profilesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfiles, err)
	}

	out := make(Profiles, len(f.Profiles))
	for name, p := range f.Profiles {
		p.Type = os.ExpandEnv(p.Type)

		if p.Fields != nil {
			p.Fields = expandEnv(p.Fields).(map[string]any)
		}

		out[name] = p
	}

	return out, nil
}

func expandEnv(v any) any {
	switch x := v.(type) {
	case string:
		return os.ExpandEnv(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = expandEnv(item)
		}

		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = expandEnv(item)
		}

		return out
	default:
		return v
	}
}

// Get returns the named profile.
func (ps Profiles) Get(name string) (Profile, error) {
	p, ok := ps[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}

	return p, nil
}

// Scheme resolves the named profile into a Scheme.
func (ps Profiles) Scheme(name string) (Scheme, error) {
	p, err := ps.Get(name)
	if err != nil {
		return nil, err
	}

	s, err := p.Scheme()
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}

	return s, nil
}

// Names returns the profile names in sorted order.
func (ps Profiles) Names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
