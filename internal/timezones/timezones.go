// Package timezones maps user input such as "new york" to IANA zone names.
package timezones

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"guildkeeper/internal/domain"
)

// MaxChoices is the most autocomplete results a chat client accepts.
const MaxChoices = 25

//go:embed timezones.yaml
var indexYAML []byte

type regionEntry struct {
	Region string   `yaml:"region"`
	Cities []string `yaml:"cities"`
}

// Zone is one entry of the index.
type Zone struct {
	Region string
	City   string
}

// Name returns the IANA zone name.
func (z Zone) Name() string {
	return z.Region + "/" + z.City
}

// Label is the human-readable city name, e.g. "New York".
func (z Zone) Label() string {
	return strings.ReplaceAll(z.City, "_", " ")
}

type Index struct {
	regions []regionEntry
	zones   []Zone
}

// Parse reads an index from YAML.
func Parse(data []byte) (*Index, error) {
	var regions []regionEntry
	if err := yaml.Unmarshal(data, &regions); err != nil {
		return nil, fmt.Errorf("parse timezone index: %w", err)
	}
	idx := &Index{regions: regions}
	for _, r := range regions {
		if r.Region == "" {
			return nil, fmt.Errorf("parse timezone index: entry without region")
		}
		for _, c := range r.Cities {
			idx.zones = append(idx.zones, Zone{Region: r.Region, City: c})
		}
	}
	return idx, nil
}

var defaultIndex = sync.OnceValues(func() (*Index, error) {
	return Parse(indexYAML)
})

// Default returns the embedded index.
func Default() *Index {
	idx, err := defaultIndex()
	if err != nil {
		panic(err)
	}
	return idx
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " "))
}

// Resolve accepts an IANA name ("America/New_York") or a city from the
// index ("new york") and returns the IANA name.
func (i *Index) Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", domain.NewValidationError("timezone", "a timezone is required")
	}
	key := normalize(input)
	for _, z := range i.zones {
		if normalize(z.Name()) == key {
			return z.Name(), nil
		}
	}
	if strings.Contains(input, "/") || strings.EqualFold(input, "UTC") {
		if _, err := time.LoadLocation(input); err == nil {
			return input, nil
		}
	}
	for _, z := range i.zones {
		if normalize(z.City) == key {
			if _, err := time.LoadLocation(z.Name()); err != nil {
				continue
			}
			return z.Name(), nil
		}
	}
	return "", domain.NewValidationError("timezone", "'%s' is not a valid timezone.", input)
}

// Autocomplete suggests zones for a partial input. A region name such as
// "america" lists that region's cities; otherwise cities starting with prefix match.
func (i *Index) Autocomplete(prefix string) []Zone {
	key := normalize(prefix)
	var out []Zone
	if key != "" {
		for _, r := range i.regions {
			last := r.Region[strings.LastIndex(r.Region, "/")+1:]
			if !strings.HasPrefix(normalize(last), key) {
				continue
			}
			for _, c := range r.Cities {
				out = append(out, Zone{Region: r.Region, City: c})
				if len(out) == MaxChoices {
					return out
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	for _, z := range i.zones {
		if strings.HasPrefix(normalize(z.City), key) {
			out = append(out, z)
			if len(out) == MaxChoices {
				break
			}
		}
	}
	return out
}
