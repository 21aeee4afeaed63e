// Package catalog holds the quest catalogue and the seed dataset the quests
// are graded against.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/cypher-quest-api/internal/grader"
)

//go:embed quests.yaml
var questsYAML []byte

//go:embed seed.cypher
var seedCypher string

//go:embed checker.schema.json
var catalogSchema []byte

const schemaURL = "https://cypherquest.local/schemas/catalog.schema.json"

var (
	// ErrInvalidCatalog is returned when the catalogue document fails validation.
	ErrInvalidCatalog = errors.New("invalid quest catalogue")
	// ErrDuplicateQuest is returned when two quests share an id.
	ErrDuplicateQuest = errors.New("duplicate quest id")
)

// Group splits quests into those playable on an empty graph and those that
// need the seed dataset.
type Group string

const (
	GroupPre  Group = "pre"
	GroupPost Group = "post"
)

// Constraints restrict how a quest may be played.
type Constraints struct {
	DenyWrite   bool `yaml:"denyWrite" json:"denyWrite"`
	RequireSeed bool `yaml:"requireSeed" json:"requireSeed"`
}

// Quest is one graded exercise.
type Quest struct {
	ID            string            `yaml:"id"`
	Chapter       int               `yaml:"chapter"`
	Group         Group             `yaml:"group"`
	Title         string            `yaml:"title"`
	Story         string            `yaml:"story"`
	Objective     string            `yaml:"objective"`
	StarterCypher string            `yaml:"starterCypher"`
	Hints         []string          `yaml:"hints"`
	AllowedOps    []string          `yaml:"allowedOps"`
	Constraints   Constraints       `yaml:"constraints"`
	Checker       grader.Definition `yaml:"checker"`
}

// Locked reports whether the quest is unavailable for the given seeding state.
func (q Quest) Locked(seeded bool) bool {
	return q.Group == GroupPost && !seeded
}

func (q Quest) clone() Quest {
	q.Hints = append([]string(nil), q.Hints...)
	q.AllowedOps = append([]string(nil), q.AllowedOps...)
	return q
}

type document struct {
	Quests []Quest `yaml:"quests"`
}

// Registry is the immutable, loaded quest catalogue.
type Registry struct {
	quests   []Quest
	index    map[string]int
	checkers map[string]*grader.CheckerSpec
	seed     string
}

// Load parses the embedded catalogue and seed dataset.
func Load() (*Registry, error) {
	return Parse(questsYAML, seedCypher)
}

// Parse builds a registry from a catalogue document. The document is checked
// against the catalogue schema, decoded strictly and every checker compiled.
func Parse(data []byte, seed string) (*Registry, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidCatalog, err)
	}

	registry := &Registry{
		quests:   make([]Quest, 0, len(doc.Quests)),
		index:    make(map[string]int, len(doc.Quests)),
		checkers: make(map[string]*grader.CheckerSpec, len(doc.Quests)),
		seed:     strings.TrimSpace(seed),
	}

	for _, quest := range doc.Quests {
		quest.ID = strings.TrimSpace(quest.ID)
		if _, exists := registry.index[quest.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateQuest, quest.ID)
		}

		spec, err := quest.Checker.Compile()
		if err != nil {
			return nil, fmt.Errorf("%w: quest %s: %v", ErrInvalidCatalog, quest.ID, err)
		}

		registry.index[quest.ID] = len(registry.quests)
		registry.quests = append(registry.quests, quest)
		registry.checkers[quest.ID] = &spec
	}

	return registry, nil
}

func validateDocument(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse yaml: %v", ErrInvalidCatalog, err)
	}

	// The schema validator expects JSON-decoded values.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	var instance any
	if err := json.Unmarshal(encoded, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	schema, err := compileSchema(bytes.NewReader(catalogSchema))
	if err != nil {
		return err
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return nil
}

func compileSchema(source io.Reader) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, source); err != nil {
		return nil, fmt.Errorf("load catalogue schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile catalogue schema: %w", err)
	}
	return schema, nil
}

// List returns every quest in catalogue order.
func (r *Registry) List() []Quest {
	quests := make([]Quest, 0, len(r.quests))
	for _, quest := range r.quests {
		quests = append(quests, quest.clone())
	}
	return quests
}

// Len returns the number of quests.
func (r *Registry) Len() int {
	return len(r.quests)
}

// Get returns the quest with the given id.
func (r *Registry) Get(id string) (Quest, bool) {
	idx, ok := r.index[strings.TrimSpace(id)]
	if !ok {
		return Quest{}, false
	}
	return r.quests[idx].clone(), true
}

// Checker returns the compiled checker of a quest, or nil when the quest is
// unknown. Callers must not modify the returned spec.
func (r *Registry) Checker(id string) *grader.CheckerSpec {
	return r.checkers[strings.TrimSpace(id)]
}

// First returns the opening quest.
func (r *Registry) First() Quest {
	if len(r.quests) == 0 {
		return Quest{}
	}
	return r.quests[0].clone()
}

// Available lists the quests playable in the given seeding state.
func (r *Registry) Available(seeded bool) []Quest {
	quests := make([]Quest, 0, len(r.quests))
	for _, quest := range r.quests {
		if !quest.Locked(seeded) {
			quests = append(quests, quest.clone())
		}
	}
	return quests
}

// Next returns the quest that follows id among the available quests. The last
// quest maps onto itself; an id outside the available list maps onto the
// first available quest.
func (r *Registry) Next(id string, seeded bool) string {
	available := r.Available(seeded)
	if len(available) == 0 {
		return id
	}

	pos := -1
	for i, quest := range available {
		if quest.ID == id {
			pos = i
			break
		}
	}
	if pos+1 < len(available) {
		return available[pos+1].ID
	}
	return id
}

// SeedCypher returns the statement that loads the seed dataset.
func (r *Registry) SeedCypher() string {
	return r.seed
}
