package expr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawNode is the wire shape shared by every variant: an object with a "type"
// tag plus whichever fields that tag requires. Pointers record presence.
type rawNode struct {
	Type       string      `json:"type" yaml:"type"`
	Expression *rawNode    `json:"expression,omitempty" yaml:"expression,omitempty"`
	Power      *rawNode    `json:"power,omitempty" yaml:"power,omitempty"`
	Value      *float64    `json:"value,omitempty" yaml:"value,omitempty"`
	Name       *string     `json:"name,omitempty" yaml:"name,omitempty"`
	Arguments  *[]*rawNode `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Left       *rawNode    `json:"left,omitempty" yaml:"left,omitempty"`
	Right      *rawNode    `json:"right,omitempty" yaml:"right,omitempty"`

	// Extra collects unknown YAML keys; JSON rejects them at decode time.
	Extra map[string]any `json:"-" yaml:",inline"`
}

func (r *rawNode) present() []string {
	var fields []string
	if r.Expression != nil {
		fields = append(fields, "expression")
	}
	if r.Power != nil {
		fields = append(fields, "power")
	}
	if r.Value != nil {
		fields = append(fields, "value")
	}
	if r.Name != nil {
		fields = append(fields, "name")
	}
	if r.Arguments != nil {
		fields = append(fields, "arguments")
	}
	if r.Left != nil {
		fields = append(fields, "left")
	}
	if r.Right != nil {
		fields = append(fields, "right")
	}
	return fields
}

// shape lists the required and optional fields for a tag.
type shape struct {
	required []string
	optional []string
}

var shapes = map[string]shape{
	string(SignParen):      {required: []string{"expression"}},
	string(SignPower):      {required: []string{"expression", "power"}},
	string(Number):         {required: []string{"value"}},
	string(ConstE):         {optional: []string{"value"}},
	string(ConstPi):        {optional: []string{"value"}},
	VariableTypeName:       {required: []string{"name"}},
	FunctionTypeName:       {required: []string{"name", "arguments"}},
	string(Addition):       {required: []string{"left", "right"}},
	string(Subtraction):    {required: []string{"left", "right"}},
	string(Multiplication): {required: []string{"left", "right"}},
	string(Division):       {required: []string{"left", "right"}},
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func structural(p *path, format string, args ...any) error {
	return &DecodeError{Kind: DecodeStructural, Path: p.String(), Message: fmt.Sprintf(format, args...)}
}

// build checks r against the shape its tag selects and converts it.
func (r *rawNode) build(p *path) (Node, error) {
	if r == nil {
		return nil, structural(p, "node is null")
	}
	if len(r.Extra) > 0 {
		keys := make([]string, 0, len(r.Extra))
		for k := range r.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, structural(p, "unknown fields %v", keys)
	}
	if r.Type == "" {
		return nil, structural(p, `missing "type"`)
	}
	sh, ok := shapes[r.Type]
	if !ok {
		return nil, &DecodeError{Kind: DecodeUnknownTag, Path: p.String(), Message: fmt.Sprintf("unknown node type %q", r.Type)}
	}
	present := r.present()
	for _, f := range sh.required {
		if !contains(present, f) {
			return nil, structural(p, "%s node requires %q", r.Type, f)
		}
	}
	for _, f := range present {
		if !contains(sh.required, f) && !contains(sh.optional, f) {
			return nil, structural(p, "%s node cannot carry %q", r.Type, f)
		}
	}

	switch r.Type {
	case string(SignParen):
		inner, err := r.Expression.build(p.child("expression"))
		if err != nil {
			return nil, err
		}
		return &Paren{Expression: inner}, nil

	case string(SignPower):
		base, err := r.Expression.build(p.child("expression"))
		if err != nil {
			return nil, err
		}
		exp, err := r.Power.build(p.child("power"))
		if err != nil {
			return nil, err
		}
		return &Power{Expression: base, Power: exp}, nil

	case string(Number):
		return &Value{Kind: Number, Value: *r.Value}, nil

	case string(ConstE), string(ConstPi):
		return &Value{Kind: ValueType(r.Type)}, nil

	case VariableTypeName:
		return &Var{Name: *r.Name}, nil

	case FunctionTypeName:
		name := FuncType(*r.Name)
		if !name.Valid() {
			return nil, &DecodeError{Kind: DecodeUnknownTag, Path: p.child("name").String(), Message: fmt.Sprintf("unknown function %q", *r.Name)}
		}
		args := make([]Node, len(*r.Arguments))
		for i, a := range *r.Arguments {
			n, err := a.build(p.arg(i))
			if err != nil {
				return nil, err
			}
			args[i] = n
		}
		return &Func{Name: name, Arguments: args}, nil
	}

	left, err := r.Left.build(p.child("left"))
	if err != nil {
		return nil, err
	}
	right, err := r.Right.build(p.child("right"))
	if err != nil {
		return nil, err
	}
	return &Oper{Op: OperationType(r.Type), Left: left, Right: right}, nil
}

// toRaw converts a validated tree to its wire shape. Constants carry their
// numeric value so the output also satisfies consumers that require it.
func toRaw(n Node) *rawNode {
	switch n := n.(type) {
	case *Paren:
		return &rawNode{Type: n.Type(), Expression: toRaw(n.Expression)}
	case *Power:
		return &rawNode{Type: n.Type(), Expression: toRaw(n.Expression), Power: toRaw(n.Power)}
	case *Value:
		v := n.Value
		switch n.Kind {
		case ConstE:
			v = math.E
		case ConstPi:
			v = math.Pi
		}
		return &rawNode{Type: n.Type(), Value: &v}
	case *Var:
		name := n.Name
		return &rawNode{Type: n.Type(), Name: &name}
	case *Func:
		name := string(n.Name.Canonical())
		args := make([]*rawNode, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = toRaw(a)
		}
		return &rawNode{Type: n.Type(), Name: &name, Arguments: &args}
	case *Oper:
		return &rawNode{Type: n.Type(), Left: toRaw(n.Left), Right: toRaw(n.Right)}
	}
	return nil
}

func syntax(err error) error {
	return &DecodeError{Kind: DecodeSyntax, Message: "malformed input", Err: err}
}

func decodeJSONRaw(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field ") {
			return &DecodeError{Kind: DecodeStructural, Message: "unknown field", Err: err}
		}
		return syntax(err)
	}
	if dec.More() {
		return syntax(errors.New("trailing data after value"))
	}
	return nil
}

// DecodeJSON decodes one tree from its JSON object form.
func DecodeJSON(data []byte) (Node, error) {
	var raw *rawNode
	if err := decodeJSONRaw(data, &raw); err != nil {
		return nil, err
	}
	return raw.build(nil)
}

// DecodeJSONList decodes a JSON array of trees. A single object is accepted
// as a one-element list.
func DecodeJSONList(data []byte) ([]Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		n, err := DecodeJSON(data)
		if err != nil {
			return nil, err
		}
		return []Node{n}, nil
	}
	var raws []*rawNode
	if err := decodeJSONRaw(trimmed, &raws); err != nil {
		return nil, err
	}
	return buildList(raws)
}

func buildList(raws []*rawNode) ([]Node, error) {
	nodes := make([]Node, len(raws))
	for i, r := range raws {
		n, err := r.build(&path{field: fmt.Sprintf("[%d]", i), index: -1})
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

// DecodeYAML decodes one tree from a YAML mapping.
func DecodeYAML(data []byte) (Node, error) {
	var raw *rawNode
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, syntax(err)
	}
	return raw.build(nil)
}

// DecodeYAMLStream reads every document in r. A document is either one tree
// or a sequence of trees.
func DecodeYAMLStream(r io.Reader) ([]Node, error) {
	dec := yaml.NewDecoder(r)
	var nodes []Node
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, syntax(err)
		}
		if len(doc.Content) == 0 {
			continue
		}

		var raws []*rawNode
		if doc.Content[0].Kind == yaml.SequenceNode {
			if err := doc.Decode(&raws); err != nil {
				return nil, syntax(err)
			}
		} else {
			var raw *rawNode
			if err := doc.Decode(&raw); err != nil {
				return nil, syntax(err)
			}
			raws = []*rawNode{raw}
		}

		built, err := buildList(raws)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, built...)
	}
	return nodes, nil
}

// EncodeJSON returns the JSON object form of n.
func EncodeJSON(n Node) ([]byte, error) {
	if err := Validate(n); err != nil {
		return nil, err
	}
	return json.Marshal(toRaw(n))
}

// EncodeJSONList returns a JSON array of the given trees.
func EncodeJSONList(nodes []Node) ([]byte, error) {
	raws := make([]*rawNode, len(nodes))
	for i, n := range nodes {
		if err := Validate(n); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		raws[i] = toRaw(n)
	}
	return json.Marshal(raws)
}

// EncodeYAML returns the YAML mapping form of n.
func EncodeYAML(n Node) ([]byte, error) {
	if err := Validate(n); err != nil {
		return nil, err
	}
	return yaml.Marshal(toRaw(n))
}

// EncodeYAMLStream writes each tree as its own YAML document.
func EncodeYAMLStream(w io.Writer, nodes []Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for i, n := range nodes {
		if err := Validate(n); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
		if err := enc.Encode(toRaw(n)); err != nil {
			return err
		}
	}
	return enc.Close()
}

// Tree holds a Node inside structs that are encoded with encoding/json or
// yaml.v3. It is not itself a Node.
type Tree struct {
	Node Node
}

func (t Tree) MarshalJSON() ([]byte, error) {
	if t.Node == nil {
		return []byte("null"), nil
	}
	return EncodeJSON(t.Node)
}

func (t *Tree) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		t.Node = nil
		return nil
	}
	n, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	t.Node = n
	return nil
}

func (t Tree) MarshalYAML() (any, error) {
	if t.Node == nil {
		return nil, nil
	}
	if err := Validate(t.Node); err != nil {
		return nil, err
	}
	return toRaw(t.Node), nil
}

func (t *Tree) UnmarshalYAML(value *yaml.Node) error {
	var raw *rawNode
	if err := value.Decode(&raw); err != nil {
		return syntax(err)
	}
	n, err := raw.build(nil)
	if err != nil {
		return err
	}
	t.Node = n
	return nil
}
