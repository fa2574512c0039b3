package hydrate

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Directive names a key to hydrate, optionally with nested directives to
// apply to the value(s) produced for that key.
type Directive struct {
	Key    string
	Nested []Directive
}

// Key builds a bare directive.
func Key(name string) Directive { return Directive{Key: name} }

// Nested builds a directive whose nested directives are applied to the
// value(s) the key produces.
func Nested(name string, nested ...Directive) Directive {
	return Directive{Key: name, Nested: nested}
}

// ParseDirectives parses the textual directive form: a GraphQL-style
// selection set without the outer braces, e.g.
//
//	creator, collection { owner }
//
// An empty string yields no directives.
func ParseDirectives(src string) ([]Directive, error) {
	if src == "" {
		return nil, nil
	}
	doc, err := parser.ParseQuery(&ast.Source{Name: "hydrate", Input: "{" + src + "}"})
	if err != nil {
		return nil, fmt.Errorf("parse hydrate directives: %w", err)
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("parse hydrate directives: expected a single selection set")
	}
	return fromSelectionSet(doc.Operations[0].SelectionSet)
}

func fromSelectionSet(ss ast.SelectionSet) ([]Directive, error) {
	out := make([]Directive, 0, len(ss))
	for _, sel := range ss {
		f, ok := sel.(*ast.Field)
		if !ok {
			return nil, fmt.Errorf("parse hydrate directives: unsupported selection %T", sel)
		}
		if len(f.Arguments) > 0 {
			return nil, fmt.Errorf("parse hydrate directives: key %q: arguments are not supported", f.Name)
		}
		d := Directive{Key: f.Name}
		if len(f.SelectionSet) > 0 {
			nested, err := fromSelectionSet(f.SelectionSet)
			if err != nil {
				return nil, err
			}
			d.Nested = nested
		}
		out = append(out, d)
	}
	return out, nil
}
