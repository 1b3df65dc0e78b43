package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"medica-diagnosis/internal/validation"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the closed symptom vocabulary together with the per-disease
// symptom index. It is built once and never mutated afterwards; every
// accessor hands out copies.
type Catalog struct {
	symptoms []string
	vocab    map[string]struct{}
	diseases map[string][]string
	names    []string
}

type document struct {
	Symptoms []string            `yaml:"symptoms"`
	Diseases map[string][]string `yaml:"diseases"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a catalog override from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML catalog and checks that the disease index only refers
// to vocabulary entries.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Symptoms) == 0 {
		return nil, fmt.Errorf("catalog has no symptoms")
	}

	c := &Catalog{
		vocab:    make(map[string]struct{}, len(doc.Symptoms)),
		diseases: make(map[string][]string, len(doc.Diseases)),
	}
	for _, s := range doc.Symptoms {
		if s != strings.ToLower(strings.TrimSpace(s)) || s == "" {
			return nil, fmt.Errorf("symptom %q is not in canonical lowercase form", s)
		}
		if _, dup := c.vocab[s]; dup {
			return nil, fmt.Errorf("duplicate symptom %q", s)
		}
		c.vocab[s] = struct{}{}
		c.symptoms = append(c.symptoms, s)
	}

	for name, syms := range doc.Diseases {
		set := make([]string, 0, len(syms))
		seen := make(map[string]struct{}, len(syms))
		for _, s := range syms {
			if _, ok := c.vocab[s]; !ok {
				return nil, fmt.Errorf("disease %q refers to unknown symptom %q", name, s)
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			set = append(set, s)
		}
		c.diseases[name] = set
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)

	return c, nil
}

// Symptoms returns the vocabulary in catalog order.
func (c *Catalog) Symptoms() []string {
	return append([]string(nil), c.symptoms...)
}

// IsSymptom reports whether s is a vocabulary entry. Matching is exact;
// callers lowercase user input first.
func (c *Catalog) IsSymptom(s string) bool {
	_, ok := c.vocab[s]
	return ok
}

// Diseases returns every indexed disease name, sorted.
func (c *Catalog) Diseases() []string {
	return append([]string(nil), c.names...)
}

// SymptomsFor returns the symptoms indexed for disease, or nil when the
// disease is not in the index.
func (c *Catalog) SymptomsFor(disease string) []string {
	syms, ok := c.diseases[disease]
	if !ok {
		return nil
	}
	return append([]string(nil), syms...)
}

// ParseSymptoms splits a comma separated symptom string into lowercase
// tokens and rejects the whole input if any token is outside the
// vocabulary. Every invalid token is listed in the returned error.
func (c *Catalog) ParseSymptoms(raw string) ([]string, error) {
	var tokens, invalid []string
	for _, part := range strings.Split(raw, ",") {
		tok := strings.ToLower(strings.TrimSpace(part))
		if tok == "" {
			continue
		}
		if !c.IsSymptom(tok) {
			invalid = append(invalid, tok)
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(invalid) > 0 {
		return nil, &validation.ValidationError{
			Field:   "symptoms",
			Message: "Invalid symptom(s): " + strings.Join(invalid, ", "),
		}
	}
	return tokens, nil
}
