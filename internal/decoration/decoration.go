// Package decoration loads named decorations from storage and decides who
// may use them.
package decoration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/youruser/profileart/internal/errs"
	"github.com/youruser/profileart/internal/policy"
	"github.com/youruser/profileart/internal/storage"
)

// Fixed asset names inside a decoration's storage namespace.
const (
	ConfigName  = "config.json"
	OverlayName = "decoration.png"
	MaskName    = "mask.png"
	ExampleName = "example.png"

	// TypesName is the policy table file at the bucket root.
	TypesName = "types.json"

	DefaultName = "default"
)

// Descriptor is the loaded configuration of one decoration. Asset fields hold
// storage keys; Overlay is empty for mask-only decorations.
type Descriptor struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Overlay string `json:"overlay,omitempty"`
	Mask    string `json:"mask"`
	Example string `json:"example"`
	// MaskFallback is set when Mask was borrowed from the default decoration.
	MaskFallback bool `json:"mask_fallback,omitempty"`
}

func (d Descriptor) HasOverlay() bool { return d.Overlay != "" }

// Registry enumerates the decorations present in a bucket. Every call scans
// storage again.
type Registry struct {
	bucket storage.Bucket
}

func NewRegistry(b storage.Bucket) *Registry {
	return &Registry{bucket: b}
}

// Names returns the decoration names, sorted, without duplicates.
func (r *Registry) Names(ctx context.Context) ([]string, error) {
	names, err := r.bucket.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing decorations: %w", err)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Has reports whether name is currently registered.
func (r *Registry) Has(ctx context.Context, name string) (bool, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearch(names, name)
	return found, nil
}

// config is the persisted per-decoration record.
type config struct {
	Type string `json:"type"`
}

// Loader builds descriptors, validating the type against the policy table
// eagerly.
type Loader struct {
	bucket   storage.Bucket
	registry *Registry
	policies *policy.Table
}

func NewLoader(b storage.Bucket, policies *policy.Table) *Loader {
	return &Loader{bucket: b, registry: NewRegistry(b), policies: policies}
}

// Registry returns the registry the loader resolves names against.
func (l *Loader) Registry() *Registry { return l.registry }

// Load reads the descriptor of name. It never returns a partial descriptor.
func (l *Loader) Load(ctx context.Context, name string) (Descriptor, error) {
	names, err := l.registry.Names(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	return l.load(ctx, name, names)
}

// load resolves name against names, a sorted listing from Registry.Names.
func (l *Loader) load(ctx context.Context, name string, names []string) (Descriptor, error) {
	if _, ok := slices.BinarySearch(names, name); !ok {
		return Descriptor{}, fmt.Errorf("decoration %q: %w", name, errs.ErrNotFound)
	}

	raw, err := l.bucket.Read(ctx, storage.Key(name, ConfigName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("decoration %q: missing %s: %w", name, ConfigName, errs.ErrInvalidConfig)
		}
		return Descriptor{}, fmt.Errorf("decoration %q: reading %s: %w", name, ConfigName, err)
	}
	var cfg config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Descriptor{}, fmt.Errorf("decoration %q: %w: %w", name, errs.ErrInvalidConfig, err)
	}
	if cfg.Type == "" {
		return Descriptor{}, fmt.Errorf("decoration %q: missing type field: %w", name, errs.ErrInvalidConfig)
	}
	if !l.policies.Has(cfg.Type) {
		return Descriptor{}, fmt.Errorf("decoration %q: type %q: %w", name, cfg.Type, errs.ErrUnknownType)
	}

	d := Descriptor{
		Name:    name,
		Type:    cfg.Type,
		Example: storage.Key(name, ExampleName),
	}
	if ok, err := l.bucket.Exists(ctx, storage.Key(name, OverlayName)); err != nil {
		return Descriptor{}, err
	} else if ok {
		d.Overlay = storage.Key(name, OverlayName)
	}
	mask, fallback, err := l.resolveMask(ctx, name)
	if err != nil {
		return Descriptor{}, err
	}
	d.Mask, d.MaskFallback = mask, fallback
	return d, nil
}

// resolveMask returns the decoration's own mask, or the default decoration's
// mask when it declares none.
func (l *Loader) resolveMask(ctx context.Context, name string) (string, bool, error) {
	own := storage.Key(name, MaskName)
	ok, err := l.bucket.Exists(ctx, own)
	if err != nil {
		return "", false, err
	}
	if ok {
		return own, false, nil
	}
	def := storage.Key(DefaultName, MaskName)
	ok, err = l.bucket.Exists(ctx, def)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, fmt.Errorf("decoration %q: no mask and no default mask %s: %w", name, def, errs.ErrAssetMissing)
	}
	return def, true, nil
}

// LoadAll loads every registered decoration from one storage listing,
// stopping at the first failure.
func (l *Loader) LoadAll(ctx context.Context) ([]Descriptor, error) {
	names, err := l.registry.Names(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Descriptor, 0, len(names))
	for _, n := range names {
		d, err := l.load(ctx, n, names)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// LoadPolicies reads the policy table from the bucket root.
func LoadPolicies(ctx context.Context, b storage.Bucket, deps policy.Deps) (*policy.Table, error) {
	raw, err := b.Read(ctx, TypesName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("missing %s: %w", TypesName, errs.ErrInvalidConfig)
		}
		return nil, fmt.Errorf("reading %s: %w", TypesName, err)
	}
	return policy.Load(raw, deps)
}
