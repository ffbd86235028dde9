// Package sections assigns electoral sections to municipalities from a static
// section -> municipalities reference table.
package sections

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section is one electoral section and its municipalities in reference order.
type Section struct {
	Name           string   `json:"name"`
	Municipalities []string `json:"municipalities"`
}

// Reference is the ordered section -> municipalities table. On disk it is a
// YAML mapping from section name to a list of municipality names.
type Reference struct {
	Sections []Section `json:"sections"`
}

// Pair is one (section, municipality) observation used to derive a Reference.
type Pair struct {
	Section      string
	Municipality string
}

// Derive builds a Reference from observations: sections sorted by name,
// each with its sorted unique municipalities. Blank values are skipped.
func Derive(pairs []Pair) Reference {
	bySection := map[string]map[string]struct{}{}
	for _, p := range pairs {
		s, m := strings.TrimSpace(p.Section), strings.TrimSpace(p.Municipality)
		if s == "" || m == "" {
			continue
		}
		if bySection[s] == nil {
			bySection[s] = map[string]struct{}{}
		}
		bySection[s][m] = struct{}{}
	}

	names := make([]string, 0, len(bySection))
	for s := range bySection {
		names = append(names, s)
	}
	sort.Strings(names)

	ref := Reference{Sections: make([]Section, 0, len(names))}
	for _, s := range names {
		munis := make([]string, 0, len(bySection[s]))
		for m := range bySection[s] {
			munis = append(munis, m)
		}
		sort.Strings(munis)
		ref.Sections = append(ref.Sections, Section{Name: s, Municipalities: munis})
	}
	return ref
}

// Len returns the number of municipality entries across all sections.
func (r Reference) Len() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Municipalities)
	}
	return n
}

// MarshalYAML writes the reference as an ordered mapping.
func (r Reference) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range r.Sections {
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, m := range s.Municipalities {
			list.Content = append(list.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m})
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Name}, list)
	}
	return root, nil
}

// UnmarshalYAML reads an ordered mapping, keeping document order.
func (r *Reference) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a mapping of section to municipalities", ErrInvalidReference, node.Line)
	}
	r.Sections = r.Sections[:0]
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		var munis []string
		if err := v.Decode(&munis); err != nil {
			return fmt.Errorf("%w: section %q: %w", ErrInvalidReference, k.Value, err)
		}
		r.Sections = append(r.Sections, Section{Name: k.Value, Municipalities: munis})
	}
	return nil
}

// LoadReference reads a YAML reference file.
func LoadReference(path string) (Reference, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Reference{}, fmt.Errorf("read reference %s: %w", path, err)
	}
	var ref Reference
	if err := yaml.Unmarshal(b, &ref); err != nil {
		return Reference{}, fmt.Errorf("parse reference %s: %w", path, err)
	}
	return ref, nil
}

// SaveReference writes ref to path as YAML.
func SaveReference(path string, ref Reference) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ref); err != nil {
		return fmt.Errorf("encode reference: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode reference: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // reference is not secret
		return fmt.Errorf("write reference %s: %w", path, err)
	}
	return nil
}
