package change

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

type decodeFunc func(*yaml.Node) (Change, error)

var registry = map[Kind]decodeFunc{
	KindCreateTable:      decodeAs[CreateTable],
	KindDropTable:        decodeAs[DropTable],
	KindAddField:         decodeAs[AddField],
	KindDropField:        decodeAs[DropField],
	KindAlterField:       decodeAs[AlterField],
	KindCreateConstraint: decodeAs[CreateConstraint],
	KindDropConstraint:   decodeAs[DropConstraint],
	KindCreateIndex:      decodeAs[CreateIndex],
	KindDropIndex:        decodeAs[DropIndex],
}

func decodeAs[T Change](node *yaml.Node) (Change, error) {
	var c T
	if err := node.Decode(&c); err != nil {
		return nil, err
	}
	return c, nil
}

// Kinds lists every registered change kind
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Step is the YAML form of a Change: a mapping whose "op" key names the
// variant, followed by the variant's attributes.
type Step struct {
	Change
}

// MarshalYAML implements yaml.Marshaler
func (s Step) MarshalYAML() (interface{}, error) {
	if s.Change == nil {
		return nil, fmt.Errorf("%w: empty step", ErrInvalid)
	}
	var node yaml.Node
	if err := node.Encode(s.Change); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", s.Kind(), err)
	}
	op := []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "op"},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(s.Kind())},
	}
	node.Content = append(op, node.Content...)
	return &node, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: step must be a mapping", node.Line)
	}
	var head struct {
		Op Kind `yaml:"op"`
	}
	if err := node.Decode(&head); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	decode, ok := registry[head.Op]
	if !ok {
		return fmt.Errorf("line %d: %w: %q", node.Line, ErrUnknownKind, head.Op)
	}
	c, err := decode(node)
	if err != nil {
		return fmt.Errorf("line %d: failed to decode %s: %w", node.Line, head.Op, err)
	}
	s.Change = c
	return nil
}

// Steps wraps changes for encoding
func Steps(changes []Change) []Step {
	steps := make([]Step, len(changes))
	for i, c := range changes {
		steps[i] = Step{c}
	}
	return steps
}

// Changes unwraps decoded steps
func Changes(steps []Step) []Change {
	changes := make([]Change, len(steps))
	for i, s := range steps {
		changes[i] = s.Change
	}
	return changes
}

// Marshal serializes a single change
func Marshal(c Change) ([]byte, error) {
	return yaml.Marshal(Step{c})
}

// Unmarshal parses a change serialized by Marshal
func Unmarshal(data []byte) (Change, error) {
	var s Step
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Change == nil {
		return nil, fmt.Errorf("%w: empty step", ErrInvalid)
	}
	return s.Change, nil
}
