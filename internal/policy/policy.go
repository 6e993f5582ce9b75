// Package policy implements the decoration type table: for each type
// identifier an admission predicate and an optional badge label.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/youruser/profileart/internal/errs"
)

// BadgeURLTemplate is filled with the label text and color, in that order.
const BadgeURLTemplate = "https://img.shields.io/badge/-%s-%s"

// Predicate reports whether identity may use decorations of a type. The
// error return carries identity-graph failures only.
type Predicate func(ctx context.Context, identity string) (bool, error)

// Label is the badge shown next to decorations of a type.
type Label struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// URL builds the shields.io badge URL. Text and color are substituted as-is.
func (l Label) URL() string {
	return fmt.Sprintf(BadgeURLTemplate, l.Text, l.Color)
}

// Type is one entry of the table.
type Type struct {
	ID    string
	Label *Label
	Admit Predicate
}

// Graph answers relationship questions about GitHub accounts.
type Graph interface {
	IsFollowing(ctx context.Context, user, target string) (bool, error)
	IsStarred(ctx context.Context, owner, repo, user string) (bool, error)
}

// Deps are the collaborators predicates are built from.
type Deps struct {
	Graph Graph
	Owner string
	Repo  string
}

// Table maps type identifiers to types, remembering registration order. It is
// immutable after construction and safe for concurrent use.
type Table struct {
	order []string
	types map[string]*Type
}

// New builds a table from types in registration order. IDs must be unique.
func New(types ...*Type) (*Table, error) {
	t := &Table{types: make(map[string]*Type, len(types))}
	for _, ty := range types {
		if ty.ID == "" {
			return nil, fmt.Errorf("type with empty id: %w", errs.ErrInvalidConfig)
		}
		if _, dup := t.types[ty.ID]; dup {
			return nil, fmt.Errorf("duplicate type %q: %w", ty.ID, errs.ErrInvalidConfig)
		}
		if ty.Admit == nil {
			return nil, fmt.Errorf("type %q has no predicate: %w", ty.ID, errs.ErrInvalidConfig)
		}
		t.types[ty.ID] = ty
		t.order = append(t.order, ty.ID)
	}
	return t, nil
}

// Order returns type identifiers in registration order.
func (t *Table) Order() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Lookup returns the type registered under id.
func (t *Table) Lookup(id string) (*Type, bool) {
	ty, ok := t.types[id]
	return ty, ok
}

// Has reports whether id is registered.
func (t *Table) Has(id string) bool {
	_, ok := t.types[id]
	return ok
}

func (t *Table) HasLabel(id string) bool {
	ty, ok := t.types[id]
	return ok && ty.Label != nil
}

// LabelURL returns the badge URL for id, or false when the type has no label.
func (t *Table) LabelURL(id string) (string, bool) {
	ty, ok := t.types[id]
	if !ok || ty.Label == nil {
		return "", false
	}
	return ty.Label.URL(), true
}

// CheckAdmission evaluates the predicate of type id for identity.
func (t *Table) CheckAdmission(ctx context.Context, id, identity string) (bool, error) {
	ty, ok := t.types[id]
	if !ok {
		return false, fmt.Errorf("policy %q not found: %w", id, errs.ErrNotFound)
	}
	return ty.Admit(ctx, identity)
}

// AlwaysAdmit lets everyone in.
func AlwaysAdmit(context.Context, string) (bool, error) { return true, nil }

// Following admits owner and anyone following owner.
func Following(g Graph, owner string) Predicate {
	return func(ctx context.Context, identity string) (bool, error) {
		if strings.EqualFold(identity, owner) {
			return true, nil
		}
		ok, err := g.IsFollowing(ctx, identity, owner)
		if err != nil {
			return false, fmt.Errorf("checking %s follows %s: %w", identity, owner, err)
		}
		return ok, nil
	}
}

// Stargazers admits owner and anyone who starred owner/repo.
func Stargazers(g Graph, owner, repo string) Predicate {
	return func(ctx context.Context, identity string) (bool, error) {
		if strings.EqualFold(identity, owner) {
			return true, nil
		}
		ok, err := g.IsStarred(ctx, owner, repo, identity)
		if err != nil {
			return false, fmt.Errorf("checking %s starred %s/%s: %w", identity, owner, repo, err)
		}
		return ok, nil
	}
}

// record is one entry of types.json.
type record struct {
	Type   string `json:"type"`
	Policy string `json:"policy,omitempty"`
	Label  *Label `json:"label,omitempty"`
}

func predicateFor(name string, deps Deps) (Predicate, error) {
	switch name {
	case "default":
		return AlwaysAdmit, nil
	case "following":
		if deps.Graph == nil {
			return nil, fmt.Errorf("policy %q needs an identity graph", name)
		}
		return Following(deps.Graph, deps.Owner), nil
	case "stargazers":
		if deps.Graph == nil {
			return nil, fmt.Errorf("policy %q needs an identity graph", name)
		}
		return Stargazers(deps.Graph, deps.Owner, deps.Repo), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}

// Load parses an ordered JSON list of type records. The "policy" field picks
// the predicate and defaults to the type id.
func Load(data []byte, deps Deps) (*Table, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parsing types: %w: %w", errs.ErrInvalidConfig, err)
	}
	types := make([]*Type, 0, len(recs))
	for i, r := range recs {
		if r.Type == "" {
			return nil, fmt.Errorf("types[%d]: missing type field: %w", i, errs.ErrInvalidConfig)
		}
		if r.Label != nil && (r.Label.Text == "" || r.Label.Color == "") {
			return nil, fmt.Errorf("type %q: label needs text and color: %w", r.Type, errs.ErrInvalidConfig)
		}
		name := r.Policy
		if name == "" {
			name = r.Type
		}
		pred, err := predicateFor(name, deps)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w: %w", r.Type, errs.ErrInvalidConfig, err)
		}
		types = append(types, &Type{ID: r.Type, Label: r.Label, Admit: pred})
	}
	return New(types...)
}
