// Package scriptfile loads a workout script from a YAML document into an
// engine.ScriptStore, the authoring format a host CLI or UI hands the
// engine.
package scriptfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wod-wiki/engine"
)

// Document is the top-level YAML shape: a flat statement table plus the ids
// that sit at the root of the script.
type Document struct {
	Root       []int           `yaml:"root"`
	Statements []StatementDoc `yaml:"statements"`
}

// StatementDoc is one authored line of a script. Only the fields relevant
// to a given block type need be set; zero values are omitted from the
// compiled fragment list, except an authored duration_ms or rounds, which
// UnmarshalYAML tells apart from an absent one.
type StatementDoc struct {
	ID           int      `yaml:"id"`
	Label        string   `yaml:"label,omitempty"`
	Exercise     string   `yaml:"exercise,omitempty"`
	ExerciseID   string   `yaml:"exercise_id,omitempty"`
	Hints        []string `yaml:"hints,omitempty"`
	Children     []int    `yaml:"children,omitempty"`
	DurationMs   int64    `yaml:"duration_ms,omitempty"`
	HasDuration  bool     `yaml:"-"`
	Rounds       int      `yaml:"rounds,omitempty"`
	HasRounds    bool     `yaml:"-"`
	Reps         []int    `yaml:"reps,omitempty"`
	Effort       int      `yaml:"effort,omitempty"`
	Resistance   int      `yaml:"resistance,omitempty"`
	Distance     int      `yaml:"distance,omitempty"`
}

// UnmarshalYAML implements custom decoding so DurationMs/Rounds presence
// can be distinguished from an authored zero.
func (s *StatementDoc) UnmarshalYAML(value *yaml.Node) error {
	type rawDoc StatementDoc
	var raw rawDoc
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = StatementDoc(raw)
	for _, node := range value.Content {
		if node.Value == "duration_ms" {
			s.HasDuration = true
		}
		if node.Value == "rounds" {
			s.HasRounds = true
		}
	}
	return nil
}

// ToCodeStatement compiles the authored document row into the engine's
// CodeStatement shape, building its Fragments list from the typed fields.
func (s StatementDoc) ToCodeStatement() engine.CodeStatement {
	var fragments []engine.Fragment
	if s.HasDuration {
		fragments = append(fragments, engine.NewFragment(engine.FragmentDuration, s.DurationMs, engine.FormatDuration(s.DurationMs), engine.OriginParser))
	}
	if s.HasRounds {
		fragments = append(fragments, engine.NewFragment(engine.FragmentRounds, s.Rounds, "", engine.OriginParser))
	}
	for _, rep := range s.Reps {
		fragments = append(fragments, engine.NewFragment(engine.FragmentRep, rep, "", engine.OriginParser))
	}
	if s.Effort != 0 {
		fragments = append(fragments, engine.NewFragment(engine.FragmentEffort, s.Effort, "", engine.OriginParser))
	}
	if s.Resistance != 0 {
		fragments = append(fragments, engine.NewFragment(engine.FragmentResistance, s.Resistance, "", engine.OriginParser))
	}
	if s.Distance != 0 {
		fragments = append(fragments, engine.NewFragment(engine.FragmentDistance, s.Distance, "", engine.OriginParser))
	}
	if s.Label != "" {
		fragments = append(fragments, engine.NewFragment(engine.FragmentLabel, s.Label, s.Label, engine.OriginParser))
	}
	return engine.CodeStatement{
		ID:           s.ID,
		Fragments:    fragments,
		Hints:        append([]string(nil), s.Hints...),
		ChildIDs:     append([]int(nil), s.Children...),
		ExerciseID:   s.ExerciseID,
		ExerciseName: s.Exercise,
	}
}

// Validate checks that every referenced child id and every root id resolves
// to a statement in the document, and that ids are unique.
func (d Document) Validate() error {
	seen := make(map[int]bool, len(d.Statements))
	for _, s := range d.Statements {
		if seen[s.ID] {
			return fmt.Errorf("scriptfile: duplicate statement id %d", s.ID)
		}
		seen[s.ID] = true
	}
	for _, id := range d.Root {
		if !seen[id] {
			return fmt.Errorf("scriptfile: root references unknown statement id %d", id)
		}
	}
	for _, s := range d.Statements {
		for _, child := range s.Children {
			if !seen[child] {
				return fmt.Errorf("scriptfile: statement %d references unknown child id %d", s.ID, child)
			}
		}
	}
	return nil
}

// LoadYAML parses a script document and builds an engine.ScriptStore from
// it.
func LoadYAML(data []byte) (engine.ScriptStore, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("scriptfile: parse: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	table := make(map[int]engine.CodeStatement, len(doc.Statements))
	for _, s := range doc.Statements {
		table[s.ID] = s.ToCodeStatement()
	}
	return engine.NewScriptStore(table, doc.Root), nil
}

// Load reads a script document from a YAML file on disk.
func Load(path string) (engine.ScriptStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scriptfile: read %s: %w", path, err)
	}
	return LoadYAML(data)
}
