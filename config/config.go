// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: config.go — "aggregate" namespace configuration
//
// Purpose:
//   - Resolves the two config keys the engine needs before it can bind
//     any key attribute or aggregate any value: a colon-separated list
//     of aggregation attribute names, and a colon-separated list of key
//     attribute names.
//   - Two loading paths populate the same Aggregate struct: plain
//     colon-list strings (the runtime-config style), or a JSON document
//     decoded with github.com/sugawarayuuta/sonnet.
// ─────────────────────────────────────────────────────────────────────────────

package config

import (
	"os"
	"strings"

	"github.com/sugawarayuuta/sonnet"
)

// Aggregate holds the resolved "aggregate" namespace settings.
type Aggregate struct {
	// Attributes is the ordered list of aggregation attribute names,
	// e.g. "time.inclusive.duration" or a set of counters.
	Attributes []string
	// Key is the ordered list of key attribute names whose values group
	// snapshots: values found on the context path are interned into one
	// context-tree node, values carried as immediate entries are encoded
	// as key-codec immediates.
	Key []string
}

// DefaultAttributes is the attribute list used when none is configured,
// matching the long-running default of the service this engine
// generalizes: inclusive wall-duration.
var DefaultAttributes = []string{"time.inclusive.duration"}

// FromColonLists parses the two raw colon-separated strings the runtime
// config system hands out. An empty attributes string falls back to
// DefaultAttributes; an empty key string yields no key attributes.
func FromColonLists(attributes, key string) Aggregate {
	cfg := Aggregate{}
	if attributes == "" {
		cfg.Attributes = append([]string{}, DefaultAttributes...)
	} else {
		cfg.Attributes = splitNonEmpty(attributes)
	}
	cfg.Key = splitNonEmpty(key)
	return cfg
}

func splitNonEmpty(list string) []string {
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ":")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// jsonDoc is the on-disk shape accepted by LoadJSONFile: the same two
// settings, as colon-joined strings, so both paths share parsing rules.
type jsonDoc struct {
	Attributes string `json:"attributes"`
	Key        string `json:"key"`
}

// LoadJSONFile reads and decodes a JSON config document from path using
// sonnet, then resolves it through the same rules as FromColonLists.
func LoadJSONFile(path string) (Aggregate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Aggregate{}, err
	}
	var doc jsonDoc
	if err := sonnet.Unmarshal(data, &doc); err != nil {
		return Aggregate{}, err
	}
	return FromColonLists(doc.Attributes, doc.Key), nil
}

// Reader resolves an Aggregate config from whatever source a host
// provides. A hostapi.Host holds one of these rather than a resolved
// Aggregate value, so config can be (re-)read lazily at registration
// time.
type Reader interface {
	Read() (Aggregate, error)
}

// ColonListReader reads config from two raw colon-separated strings,
// e.g. values pulled from a runtime config system.
type ColonListReader struct {
	Attributes string
	Key        string
}

func (r ColonListReader) Read() (Aggregate, error) {
	return FromColonLists(r.Attributes, r.Key), nil
}

// JSONFileReader reads config from a JSON file on disk.
type JSONFileReader struct {
	Path string
}

func (r JSONFileReader) Read() (Aggregate, error) {
	return LoadJSONFile(r.Path)
}
