// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

/*
Package entity wraps decoded Olapic API objects.

An Entity holds one JSON object as map[string]any (values are the usual
encoding/json variants: map[string]any, []any, string, float64, bool and nil)
and resolves slash-delimited paths against it:

	e := entity.New(map[string]any{"a": map[string]any{"b": 5.0}})
	v, ok := e.Get("a/b") // 5.0, true
	_, ok = e.Get("a/x")  // nil, false

A missing segment is never an error. The handlers add two derived maps when
they build an entity: "resources" (embedded relations) and "forms" (form
endpoints), keyed by relation name with ':' turned into '/', so the recent
media of a customer lives at "resources/media/recent".

The data map is not modified after construction, so every reader is safe for
concurrent use.
*/
package entity

import (
	"strconv"
	"strings"
)

// Path prefixes of the maps injected by the handlers.
const (
	ResourcesKey = "resources"
	FormsKey     = "forms"
)

// Entity is a read-only view over one API object.
type Entity struct {
	data map[string]any
}

// New wraps data. A nil map yields an empty entity.
func New(data map[string]any) *Entity {
	if data == nil {
		data = map[string]any{}
	}
	return &Entity{data: data}
}

// Get resolves path against the wrapped object.
func (e *Entity) Get(path string) (any, bool) {
	if e == nil {
		return nil, false
	}
	return Lookup(e.data, path)
}

// Lookup walks a slash-delimited path through nested JSON objects. It fails
// when a segment is missing or an intermediate value is not an object. An
// empty path returns root.
func Lookup(root any, path string) (any, bool) {
	if path == "" {
		return root, root != nil
	}
	cur := root
	for _, seg := range strings.Split(path, "/") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at path when it is a string.
func (e *Entity) String(path string) string {
	v, _ := e.Get(path)
	s, _ := v.(string)
	return s
}

// Int returns the value at path as an int. JSON numbers and numeric strings
// are accepted.
func (e *Entity) Int(path string) (int, bool) {
	f, ok := e.Float(path)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Float returns the value at path as a float64.
func (e *Entity) Float(path string) (float64, bool) {
	v, ok := e.Get(path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Bool returns the value at path when it is a boolean.
func (e *Entity) Bool(path string) bool {
	v, _ := e.Get(path)
	b, _ := v.(bool)
	return b
}

// Map returns the object at path.
func (e *Entity) Map(path string) (map[string]any, bool) {
	v, _ := e.Get(path)
	m, ok := v.(map[string]any)
	return m, ok
}

// Slice returns the array at path.
func (e *Entity) Slice(path string) ([]any, bool) {
	v, _ := e.Get(path)
	s, ok := v.([]any)
	return s, ok
}

// ID returns the entity id as a string. The API sends ids as numbers or
// strings depending on the resource.
func (e *Entity) ID() string {
	v, ok := e.Get("id")
	if !ok {
		return ""
	}
	return FormatScalar(v)
}

// Resource returns the resolved URL of an embedded relation, e.g.
// Resource("media/recent").
func (e *Entity) Resource(name string) string {
	return e.link(ResourcesKey, name)
}

// Form returns the resolved URL of a form endpoint, e.g. Form("report").
func (e *Entity) Form(name string) string {
	return e.link(FormsKey, name)
}

func (e *Entity) link(prefix, name string) string {
	name = strings.ReplaceAll(name, ":", "/")
	v, ok := e.Get(prefix + "/" + name)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		// A relation that is also the parent of nested relations keeps
		// its own link under "self".
		s, _ := t["self"].(string)
		return s
	default:
		return ""
	}
}

// Data returns a deep copy of the wrapped object.
func (e *Entity) Data() map[string]any {
	if e == nil {
		return nil
	}
	m, _ := deepCopy(e.data).(map[string]any)
	return m
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

// FormatScalar renders a JSON scalar the way the API expects it in query
// strings and form fields. Integral numbers lose their fraction.
func FormatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
