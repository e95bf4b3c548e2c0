package payloads

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlPayload mirrors Payload for YAML decoding. Sleep is written as a
// duration string ("5s") in payload files.
type yamlPayload struct {
	Class       Class          `yaml:"class"`
	Value       string         `yaml:"value"`
	Point       InjectionPoint `yaml:"point"`
	Signature   string         `yaml:"signature"`
	Description string         `yaml:"description"`
	Sleep       string         `yaml:"sleep"`
	Boolean     string         `yaml:"boolean"`
}

// LoadFile loads a payload catalog from a YAML file.
// The file holds a flat list of payloads; order within each class is
// preserved as written, keeping scans reproducible across runs.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw YAML payload data.
func Parse(data []byte) (*Catalog, error) {
	var list []yamlPayload
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing payload data: %w", err)
	}

	sets := make(map[Class][]Payload)
	for i, yp := range list {
		if !yp.Class.IsValid() {
			return nil, fmt.Errorf("payload %d: unknown class %q", i, yp.Class)
		}
		if yp.Value == "" {
			return nil, fmt.Errorf("payload %d: empty value", i)
		}
		p := Payload{
			Class:       yp.Class,
			Value:       yp.Value,
			Point:       yp.Point,
			Signature:   yp.Signature,
			Description: yp.Description,
			Boolean:     yp.Boolean,
		}
		if p.Point == "" {
			p.Point = InjectQuery
		}
		if yp.Sleep != "" {
			d, err := time.ParseDuration(yp.Sleep)
			if err != nil {
				return nil, fmt.Errorf("payload %d: bad sleep %q: %w", i, yp.Sleep, err)
			}
			p.Sleep = d
		}
		sets[p.Class] = append(sets[p.Class], p)
	}

	return &Catalog{sets: sets}, nil
}
