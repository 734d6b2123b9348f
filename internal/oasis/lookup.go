package oasis

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Strategy finds the descendants of scope named name, in document order.
type Strategy func(scope *Element, name string) []*Element

// ByTag matches elements whose qualified name, as written, equals name.
func ByTag(scope *Element, name string) []*Element {
	var out []*Element
	scope.walk(func(e *Element) {
		if e.Tag == name {
			out = append(out, e)
		}
	})
	return out
}

// ByNamespace matches elements in namespace ns whose local name equals name.
func ByNamespace(ns string) Strategy {
	return func(scope *Element, name string) []*Element {
		var out []*Element
		scope.walk(func(e *Element) {
			if e.Space == ns && e.Local == name {
				out = append(out, e)
			}
		})
		return out
	}
}

// Lookup is an ordered fallback chain: the first strategy that matches
// anything wins.
type Lookup []Strategy

// NewLookup returns the plain-tag then namespace-qualified chain for ns.
func NewLookup(ns string) Lookup {
	return Lookup{ByTag, ByNamespace(ns)}
}

// All returns every element named name under scope.
func (l Lookup) All(scope *Element, name string) []*Element {
	for _, s := range l {
		if found := s(scope, name); len(found) > 0 {
			return found
		}
	}
	return nil
}

// Element returns the first element named name under scope.
func (l Lookup) Element(scope *Element, name string) (*Element, error) {
	found := l.All(scope, name)
	if len(found) == 0 {
		return nil, &ExtractionError{Element: name, Err: ErrMissingField}
	}
	return found[0], nil
}

// Required returns the text of the first element named name under scope.
// A missing element, or one without leading text, is an error.
func (l Lookup) Required(scope *Element, name string) (string, error) {
	el, err := l.Element(scope, name)
	if err != nil {
		return "", err
	}
	return Value(el)
}

// Optional returns the numeric value of the first element named name under
// scope, or nil when it is absent, empty or not a number.
func (l Lookup) Optional(scope *Element, name string) *float64 {
	s, err := l.Required(scope, name)
	if err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// Value returns the text of el's first child node.
func Value(el *Element) (string, error) {
	s, ok := el.Text()
	if !ok {
		return "", &ExtractionError{Element: el.Local, Err: eris.Wrap(ErrMissingField, "element has no text")}
	}
	return s, nil
}
