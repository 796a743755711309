// Package catalog holds the table of physical parameters and the operators
// that are legal for each of them.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/prelev/prelev/schema"
)

// Catalog is an immutable parameter table. It is safe for concurrent use.
type Catalog struct {
	params  map[string]schema.Parameter
	names   []string
	version string
}

// New builds a catalog and checks every parameter: operators must be known,
// defaults must belong to their set and names must be unique.
func New(params []schema.Parameter) (*Catalog, error) {
	c := &Catalog{params: make(map[string]schema.Parameter, len(params))}
	for _, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("parameter without a name")
		}
		if _, dup := c.params[p.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter %q", p.Name)
		}
		for _, ctx := range []schema.OperatorContext{schema.SpatialContext, schema.TemporalContext} {
			for _, op := range p.Operators(ctx) {
				if !op.Valid() {
					return nil, fmt.Errorf("parameter %q: unknown %s operator %q", p.Name, ctx, op)
				}
			}
			if def := p.DefaultOperator(ctx); def != schema.NoOperator && !p.Supports(def, ctx) {
				return nil, fmt.Errorf("parameter %q: default %s operator %q is not legal", p.Name, ctx, def)
			}
		}
		c.params[p.Name] = clone(p)
		c.names = append(c.names, p.Name)
	}
	sort.Strings(c.names)

	payload, err := json.Marshal(c.Parameters())
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(payload)
	c.version = hex.EncodeToString(sum[:6])
	return c, nil
}

// MustNew is like New but panics on an invalid table.
func MustNew(params []schema.Parameter) *Catalog {
	c, err := New(params)
	if err != nil {
		panic(err)
	}
	return c
}

func clone(p schema.Parameter) schema.Parameter {
	p.SpatialOperators = slices.Clone(p.SpatialOperators)
	p.TemporalOperators = slices.Clone(p.TemporalOperators)
	return p
}

// Lookup returns a copy of the named parameter.
func (c *Catalog) Lookup(name string) (schema.Parameter, bool) {
	p, ok := c.params[name]
	if !ok {
		return schema.Parameter{}, false
	}
	return clone(p), true
}

// Operators returns the legal operators of a parameter for ctx.
// The boolean is false when the parameter is unknown.
func (c *Catalog) Operators(name string, ctx schema.OperatorContext) ([]schema.Operator, bool) {
	p, ok := c.params[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(p.Operators(ctx)), true
}

// DefaultOperator returns the default operator of a parameter for ctx.
// The boolean is false when the parameter is unknown or has no default.
func (c *Catalog) DefaultOperator(name string, ctx schema.OperatorContext) (schema.Operator, bool) {
	p, ok := c.params[name]
	if !ok {
		return schema.NoOperator, false
	}
	def := p.DefaultOperator(ctx)
	return def, def != schema.NoOperator
}

// ValueType returns whether the parameter is cumulative or instantaneous.
func (c *Catalog) ValueType(name string) (schema.ValueType, bool) {
	p, ok := c.params[name]
	return p.ValueType, ok
}

// Validate checks that op is legal for the parameter in ctx.
func (c *Catalog) Validate(name string, op schema.Operator, ctx schema.OperatorContext) error {
	p, ok := c.params[name]
	if !ok {
		return schema.NewUnsupportedParameterError(name)
	}
	if !p.Supports(op, ctx) {
		return schema.NewInvalidOperatorError(name, op, ctx, slices.Clone(p.Operators(ctx)))
	}
	return nil
}

// Parameters returns every parameter sorted by name.
func (c *Catalog) Parameters() []schema.Parameter {
	out := make([]schema.Parameter, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, clone(c.params[name]))
	}
	return out
}

// Names returns the parameter names in ascending order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// Version identifies the content of the table. It changes whenever a
// parameter or one of its operators changes.
func (c *Catalog) Version() string {
	return c.version
}
