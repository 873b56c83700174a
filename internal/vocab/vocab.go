// Package vocab loads the attestation field vocabulary: a mapping from
// field key (e.g. "chamber_of_commerce_kvk_nummer") to a readable label.
package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary is an immutable key to label mapping. The zero value is an
// empty vocabulary.
type Vocabulary struct {
	labels map[string]string
	keys   []string
}

// New builds a vocabulary from labels. Blank keys are ignored.
func New(labels map[string]string) Vocabulary {
	v := Vocabulary{labels: make(map[string]string, len(labels))}
	for k, label := range labels {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		v.labels[k] = strings.TrimSpace(label)
		v.keys = append(v.keys, k)
	}
	sort.Strings(v.keys)
	return v
}

// Load reads a vocabulary file. ".json" files are decoded as JSON and
// everything else as YAML. An empty path or a missing file yields an
// empty vocabulary and no error, so the classifier degrades to its
// generic prompt.
func Load(path string) (Vocabulary, error) {
	if path == "" {
		return Vocabulary{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("attestation vocabulary not found, using generic classification", "path", path)
		return Vocabulary{}, nil
	}
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}

	labels := map[string]string{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &labels)
	} else {
		err = yaml.Unmarshal(data, &labels)
	}
	if err != nil {
		return Vocabulary{}, fmt.Errorf("decode vocabulary %s: %w", path, err)
	}
	return New(labels), nil
}

// Empty reports whether no keys are known.
func (v Vocabulary) Empty() bool {
	return len(v.keys) == 0
}

func (v Vocabulary) Len() int {
	return len(v.keys)
}

// Keys returns the keys in sorted order.
func (v Vocabulary) Keys() []string {
	return append([]string(nil), v.keys...)
}

func (v Vocabulary) Has(key string) bool {
	_, ok := v.labels[key]
	return ok
}

// Label returns the label for key, or key itself when it has none.
func (v Vocabulary) Label(key string) string {
	if label := v.labels[key]; label != "" {
		return label
	}
	return key
}
