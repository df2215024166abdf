// Package schema describes the feature layout a model is trained on: the
// ordered feature names, the target and the columns removed before training.
// Feature Build writes it next to the Train/Test tables; Train, Evaluate and
// the serving adapter read it back instead of re-deriving the layout.
package schema

import (
	"encoding/json"
	"io"
	"os"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
)

// Version of the on-disk descriptor.
const Version = 1

// PassthroughColumns are identifier columns of the raw dataset that never
// become features. Used when the layout has to be recovered from a table
// header alone.
var PassthroughColumns = []string{"instant", "dteday"}

// Schema is the persisted feature layout.
type Schema struct {
	Version     int      `json:"version"`
	Features    []string `json:"features"`
	Target      string   `json:"target"`
	Dropped     []string `json:"dropped,omitempty"`
	Fingerprint string   `json:"fingerprint"`

	index map[string]int
}

// New builds a schema from an explicit feature order.
func New(features []string, target string, dropped []string) (*Schema, error) {
	s := &Schema{
		Version:  Version,
		Features: append([]string(nil), features...),
		Target:   target,
		Dropped:  append([]string(nil), dropped...),
	}
	if err := s.validate("New"); err != nil {
		return nil, err
	}
	s.Fingerprint = ComputeFingerprint(s.Target, s.Features)
	s.buildIndex()
	return s, nil
}

// Derive computes the schema of a table with the given header: the features
// are the header minus drop minus target, in header order. Drop names absent
// from the header are ignored; Dropped records only those that were present.
func Derive(columns []string, target string, drop []string) (*Schema, error) {
	dropSet := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		dropSet[d] = struct{}{}
	}

	var features, dropped []string
	hasTarget := false
	for _, c := range columns {
		switch _, isDropped := dropSet[c]; {
		case c == target:
			hasTarget = true
		case isDropped:
			dropped = append(dropped, c)
		default:
			features = append(features, c)
		}
	}
	if !hasTarget {
		return nil, errors.NewSchemaError("Derive", target, "target column not found")
	}
	return New(features, target, dropped)
}

// FromHeader recovers a schema from a persisted Train/Test header when no
// descriptor is available. The target and the known passthrough identifiers
// are excluded; the target does not have to be present.
func FromHeader(header []string, target string) (*Schema, error) {
	skip := make(map[string]struct{}, len(PassthroughColumns)+1)
	for _, c := range PassthroughColumns {
		skip[c] = struct{}{}
	}
	skip[target] = struct{}{}

	var features, dropped []string
	for _, c := range header {
		if _, ok := skip[c]; ok {
			if c != target {
				dropped = append(dropped, c)
			}
			continue
		}
		features = append(features, c)
	}
	return New(features, target, dropped)
}

// ComputeFingerprint hashes the target and the ordered feature names. Two
// layouts share a fingerprint iff they have the same target and the same
// features in the same order.
func ComputeFingerprint(target string, features []string) string {
	d := fsutil.NewDigest().AddString(target)
	for _, f := range features {
		d.AddString(f)
	}
	return d.Sum()
}

func (s *Schema) validate(op string) error {
	if s.Target == "" {
		return errors.NewSchemaError(op, "", "empty target name")
	}
	if len(s.Features) == 0 {
		return errors.NewSchemaError(op, "", "no feature columns")
	}
	seen := make(map[string]struct{}, len(s.Features))
	for _, f := range s.Features {
		if f == s.Target {
			return errors.NewSchemaError(op, f, "target listed as a feature")
		}
		if _, dup := seen[f]; dup {
			return errors.NewSchemaError(op, f, "duplicate feature")
		}
		seen[f] = struct{}{}
	}
	return nil
}

// Len is the number of features.
func (s *Schema) Len() int { return len(s.Features) }

// Columns is the persisted table header: features followed by the target.
func (s *Schema) Columns() []string {
	cols := make([]string, 0, len(s.Features)+1)
	cols = append(cols, s.Features...)
	return append(cols, s.Target)
}

// Index returns the position of a feature, or -1. Safe for concurrent use.
func (s *Schema) Index(name string) int {
	if s.index != nil {
		if i, ok := s.index[name]; ok {
			return i
		}
		return -1
	}
	for i, f := range s.Features {
		if f == name {
			return i
		}
	}
	return -1
}

// Has reports whether name is a feature.
func (s *Schema) Has(name string) bool { return s.Index(name) >= 0 }

func (s *Schema) buildIndex() {
	idx := make(map[string]int, len(s.Features))
	for i, f := range s.Features {
		idx[f] = i
	}
	s.index = idx
}

// CheckTable returns a SchemaError if header is not exactly Columns().
func (s *Schema) CheckTable(op string, header []string) error {
	want := s.Columns()
	if len(header) != len(want) {
		return errors.NewSchemaError(op, "", "table header does not match the schema")
	}
	for i := range want {
		if header[i] != want[i] {
			return errors.NewSchemaError(op, header[i], "expected column "+want[i]+" at this position")
		}
	}
	return nil
}

// Assemble builds a feature vector in schema order. Every feature starts at
// zero and is replaced by values[name] when present. Names that are not
// features are ignored.
func (s *Schema) Assemble(values map[string]float64) []float64 {
	vec := make([]float64, len(s.Features))
	for i, f := range s.Features {
		if v, ok := values[f]; ok {
			vec[i] = v
		}
	}
	return vec
}

// Save writes the descriptor as indented JSON, replacing path atomically.
func (s *Schema) Save(path string) error {
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.WithStack(enc.Encode(s))
	})
}

// Load reads a descriptor written by Save and checks that its fingerprint
// matches its content.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read schema %s", path)
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.NewSchemaError("Load", "", "malformed schema file "+path+": "+err.Error())
	}
	if s.Version != Version {
		return nil, errors.NewSchemaError("Load", "", "unsupported schema version")
	}
	if err := s.validate("Load"); err != nil {
		return nil, err
	}
	if got := ComputeFingerprint(s.Target, s.Features); got != s.Fingerprint {
		return nil, errors.NewSchemaError("Load", "", "fingerprint does not match the feature list")
	}
	s.buildIndex()
	return &s, nil
}
