package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedNode is matched by every *UnrecognizedNodeError.
	ErrUnrecognizedNode = errors.New("unrecognized node")

	// ErrTooDeep is returned when a tree exceeds RenderOptions.MaxDepth.
	ErrTooDeep = errors.New("expression tree too deep")
)

const nilTag = "<nil>"

// UnrecognizedNodeError reports a node whose tag or shape falls outside the
// grammar. Path is the field path from the root ("" for the root itself).
type UnrecognizedNodeError struct {
	Tag  string
	Path string
}

func (e *UnrecognizedNodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unrecognized node kind %q at root", e.Tag)
	}
	return fmt.Sprintf("unrecognized node kind %q at %s", e.Tag, e.Path)
}

func (e *UnrecognizedNodeError) Is(target error) bool {
	return target == ErrUnrecognizedNode
}

// DecodeErrorKind categorizes codec failures.
type DecodeErrorKind string

const (
	DecodeSyntax     DecodeErrorKind = "syntax"      // malformed JSON/YAML
	DecodeStructural DecodeErrorKind = "structural"  // missing, extra or mixed fields
	DecodeUnknownTag DecodeErrorKind = "unknown_tag" // tag outside the grammar
)

// DecodeError is returned by the tree codec.
type DecodeError struct {
	Kind    DecodeErrorKind
	Path    string
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	where := e.Path
	if where == "" {
		where = "root"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Kind, where, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, where, e.Message)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// path is a parent-linked field path, built without copying on every level.
type path struct {
	parent *path
	field  string
	index  int // -1 unless field is "arguments"
}

func (p *path) child(field string) *path {
	return &path{parent: p, field: field, index: -1}
}

func (p *path) arg(i int) *path {
	return &path{parent: p, field: "arguments", index: i}
}

func (p *path) String() string {
	if p == nil {
		return ""
	}
	var segs []*path
	for q := p; q != nil; q = q.parent {
		segs = append(segs, q)
	}
	var b []byte
	for i := len(segs) - 1; i >= 0; i-- {
		if len(b) > 0 {
			b = append(b, '.')
		}
		b = append(b, segs[i].field...)
		if segs[i].index >= 0 {
			b = fmt.Appendf(b, "[%d]", segs[i].index)
		}
	}
	return string(b)
}
