package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathConfig maps dotted role names ("source.css", "public.root") to
// configured paths. Nested configuration objects are flattened on decode.
type PathConfig map[string]string

// Get returns the configured path for role.
func (p PathConfig) Get(role string) (string, bool) {
	v, ok := p[role]
	return v, ok
}

// Roles returns all configured role names in sorted order.
func (p PathConfig) Roles() []string {
	roles := make([]string, 0, len(p))
	for role := range p {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// UnmarshalJSON flattens a nested JSON object into dotted roles.
func (p *PathConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return p.flatten(raw)
}

// UnmarshalYAML flattens a nested YAML mapping into dotted roles.
func (p *PathConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return p.flatten(raw)
}

// MarshalJSON nests dotted roles back into objects.
func (p PathConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.nest())
}

// MarshalYAML nests dotted roles back into mappings.
func (p PathConfig) MarshalYAML() (any, error) {
	return p.nest(), nil
}

func (p *PathConfig) flatten(raw map[string]any) error {
	out := PathConfig{}
	if err := flattenInto(out, "", raw); err != nil {
		return err
	}
	*p = out
	return nil
}

func flattenInto(out PathConfig, prefix string, raw map[string]any) error {
	for key, value := range raw {
		role := key
		if prefix != "" {
			role = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			out[role] = v
		case map[string]any:
			if err := flattenInto(out, role, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("paths: role %q must be a string or object, got %T", role, value)
		}
	}
	return nil
}

func (p PathConfig) nest() map[string]any {
	root := map[string]any{}
	for _, role := range p.Roles() {
		parts := strings.Split(role, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = p[role]
	}
	return root
}
