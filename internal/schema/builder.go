// Package schema renders decoded type descriptors into a JSON-Schema
// (draft 2020-12) document: a map of named definitions plus a root
// object whose properties describe the query's input arguments and
// output shape. The document is consumed by external code generators.
package schema

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/dbwire/internal/common"
	"github.com/dmitrijs2005/dbwire/internal/descriptor"
)

const schemaDialect = "https://json-schema.org/draft/2020-12/schema"

// maxNameAttempts bounds definition-name collision suffixing
// (name_0 .. name_63). Past the bound the colliding name is reused and
// the earlier definition is overwritten; the bound is deliberate.
const maxNameAttempts = 64

// builder carries the per-invocation rendering state: the definitions
// emitted so far and the registry mapping a type id to the $ref already
// issued for it. The registry both deduplicates shared subtrees and
// terminates recursion on self-referential types.
type builder struct {
	defs map[string]any
	reg  map[uuid.UUID]map[string]any
}

// Describe renders the output/input descriptor pair of a query into a
// schema document. A nil output or input renders as the null type. The
// document's definitions are unique per type id; cardinality Many wraps
// the output schema in an array.
func Describe(out, in descriptor.Desc, name string, card descriptor.Cardinality) (map[string]any, error) {
	if _, err := descriptor.CardinalityFromByte(byte(card)); err != nil {
		return nil, err
	}

	b := &builder{
		defs: map[string]any{},
		reg:  map[uuid.UUID]map[string]any{},
	}

	props := map[string]any{}
	doc := map[string]any{
		"$schema":     schemaDialect,
		"definitions": b.defs,
		"type":        "object",
		"properties":  props,
	}

	var outSchema map[string]any
	if out != nil {
		s, err := b.render(out, name)
		if err != nil {
			return nil, err
		}
		outSchema = s
	} else {
		outSchema = map[string]any{"type": "null"}
	}

	if in != nil {
		s, err := b.renderArgs(in)
		if err != nil {
			return nil, err
		}
		props["input"] = s
	} else {
		props["input"] = map[string]any{"type": "null"}
	}

	if card == descriptor.CardinalityMany {
		props["output"] = map[string]any{
			"type":  "array",
			"items": outSchema,
		}
	} else {
		props["output"] = outSchema
	}

	return doc, nil
}

// render produces the schema for one descriptor, emitting definitions
// into the builder as a side effect and memoizing per type id.
func (b *builder) render(d descriptor.Desc, name string) (map[string]any, error) {
	switch t := d.(type) {
	case *descriptor.SetDesc:
		items, err := b.render(t.Subtype, name)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil

	case *descriptor.ArrayDesc:
		// An array is a set with a recorded dimension length; the
		// length does not affect the schema shape.
		items, err := b.render(t.Subtype, name)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil

	case *descriptor.BaseScalarDesc:
		typeName, ok := descriptor.BaseScalarNames[t.TID]
		if !ok {
			return nil, fmt.Errorf(
				"%w: unknown base scalar type id %s",
				common.ErrUnsupportedDescriptor, t.TID)
		}
		return map[string]any{"type": typeName}, nil

	case *descriptor.ScalarDesc:
		if ref, ok := b.reg[t.TID]; ok {
			return ref, nil
		}
		name = b.findName(name)
		body, err := b.render(t.Subtype, name)
		if err != nil {
			return nil, err
		}
		b.defs[name] = body
		return b.register(t.TID, name), nil

	case *descriptor.ShapeDesc:
		return b.renderShape(t.TID, t.Fields, name)

	case *descriptor.InputShapeDesc:
		return b.renderShape(t.TID, t.Fields, name)

	case *descriptor.NamedTupleDesc:
		if ref, ok := b.reg[t.TID]; ok {
			return ref, nil
		}
		name = b.findName(name)
		props := map[string]any{}
		b.defs[name] = map[string]any{
			"type":       "object",
			"properties": props,
		}
		ref := b.register(t.TID, name)
		for _, f := range t.Fields {
			sub, err := b.render(f.Type, f.Name)
			if err != nil {
				return nil, err
			}
			props[f.Name] = sub
		}
		return ref, nil

	case *descriptor.TupleDesc:
		// Tuples are rendered inline each time, with stringified
		// indices as property keys; they are never registered as
		// named definitions.
		name = b.findName(name)
		props := map[string]any{}
		for i, f := range t.Fields {
			sub, err := b.render(f, name+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			props[strconv.Itoa(i)] = sub
		}
		return map[string]any{
			"type":       "object",
			"properties": props,
		}, nil

	case *descriptor.EnumDesc:
		if ref, ok := b.reg[t.TID]; ok {
			return ref, nil
		}
		name = b.findName(name)
		b.defs[name] = map[string]any{
			"type": "string",
			"enum": t.Names,
		}
		return b.register(t.TID, name), nil

	case *descriptor.RangeDesc:
		if ref, ok := b.reg[t.TID]; ok {
			return ref, nil
		}
		name = b.findName(name)
		ref := b.register(t.TID, name)
		// lower and upper share one sub-name: they are the same
		// element type.
		lower, err := b.render(t.Inner, name+"_in")
		if err != nil {
			return nil, err
		}
		upper, err := b.render(t.Inner, name+"_in")
		if err != nil {
			return nil, err
		}
		b.defs[name] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"inc_lower": map[string]any{"type": "boolean"},
				"inc_upper": map[string]any{"type": "boolean"},
				"lower":     lower,
				"upper":     upper,
			},
		}
		return ref, nil

	default:
		return nil, fmt.Errorf(
			"%w: no schema rendering for descriptor %T",
			common.ErrUnsupportedDescriptor, d)
	}
}

func (b *builder) renderShape(tid uuid.UUID, fields []descriptor.ShapeField, name string) (map[string]any, error) {
	if ref, ok := b.reg[tid]; ok {
		return ref, nil
	}
	name = b.findName(name)
	props := map[string]any{}
	b.defs[name] = map[string]any{
		"type":       "object",
		"properties": props,
	}
	ref := b.register(tid, name)
	for _, f := range fields {
		sub, err := b.render(f.Type, f.Name)
		if err != nil {
			return nil, err
		}
		if f.Cardinality == descriptor.CardinalityMany {
			props[f.Name] = map[string]any{
				"type":  "array",
				"items": sub,
			}
		} else {
			props[f.Name] = sub
		}
	}
	return ref, nil
}

// renderArgs renders the top-level input descriptor. A shape's fields
// become the call arguments: positional when the field names are
// stringified integers, named otherwise. A non-shape input renders as
// itself.
func (b *builder) renderArgs(d descriptor.Desc) (map[string]any, error) {
	var fields []descriptor.ShapeField
	switch t := d.(type) {
	case *descriptor.ShapeDesc:
		fields = t.Fields
	case *descriptor.InputShapeDesc:
		fields = t.Fields
	default:
		return b.render(d, "input")
	}

	props := map[string]any{}
	for _, f := range fields {
		subName := f.Name
		if _, err := strconv.Atoi(f.Name); err == nil {
			subName = "input" + f.Name
		}
		sub, err := b.renderArg(f.Type, subName)
		if err != nil {
			return nil, err
		}
		if f.Cardinality == descriptor.CardinalityMany {
			props[f.Name] = map[string]any{
				"type":  "array",
				"items": sub,
			}
		} else {
			props[f.Name] = sub
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}, nil
}

// renderArg renders one argument. A shape used as an argument container
// collapses to a bare object schema instead of a named definition;
// everything else renders normally.
func (b *builder) renderArg(d descriptor.Desc, name string) (map[string]any, error) {
	switch d.(type) {
	case *descriptor.ShapeDesc, *descriptor.InputShapeDesc:
		return map[string]any{"type": "object"}, nil
	}
	return b.render(d, name)
}

// register issues the $ref for a definition name and memoizes it for
// the type id.
func (b *builder) register(tid uuid.UUID, name string) map[string]any {
	ref := map[string]any{"$ref": "#/definitions/" + name}
	b.reg[tid] = ref
	return ref
}

// findName returns name, or the first untaken of name_0 .. name_63.
// When every suffix is taken the original name is returned and the
// caller overwrites the earlier definition.
func (b *builder) findName(name string) string {
	if _, taken := b.defs[name]; !taken {
		return name
	}
	for i := 0; i < maxNameAttempts; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if _, taken := b.defs[candidate]; !taken {
			return candidate
		}
	}
	return name
}
