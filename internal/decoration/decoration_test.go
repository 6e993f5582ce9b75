package decoration

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/youruser/profileart/internal/errs"
	"github.com/youruser/profileart/internal/policy"
	"github.com/youruser/profileart/internal/storage"
	"github.com/youruser/profileart/internal/testutil"
)

type noFollowers struct{}

func (noFollowers) IsFollowing(context.Context, string, string) (bool, error) { return false, nil }
func (noFollowers) IsStarred(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func newLoader(t *testing.T, b storage.Bucket) *Loader {
	t.Helper()
	tbl, err := LoadPolicies(context.Background(), b, policy.Deps{Graph: noFollowers{}, Owner: "RealA10N"})
	if err != nil {
		t.Fatalf("LoadPolicies: %v", err)
	}
	return NewLoader(b, tbl)
}

func TestRegistryNames(t *testing.T) {
	b := testutil.Decorations(t)
	got, err := NewRegistry(b).Names(context.Background())
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	want := []string{"crown", "default", "santa"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestRegistryEmptyStorage(t *testing.T) {
	got, err := NewRegistry(storage.NewDir(filepath.Join(t.TempDir(), "none"))).Names(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("Names = %v, %v; want empty, nil", got, err)
	}
}

func TestRegistryReflectsCurrentStorage(t *testing.T) {
	b := testutil.Decorations(t)
	r := NewRegistry(b)
	if err := os.MkdirAll(filepath.Join(b.Root(), "wizard"), 0o755); err != nil {
		t.Fatal(err)
	}
	ok, err := r.Has(context.Background(), "wizard")
	if err != nil || !ok {
		t.Fatalf("Has(wizard) = %v, %v", ok, err)
	}
}

func TestLoadEveryRegisteredName(t *testing.T) {
	l := newLoader(t, testutil.Decorations(t))
	ctx := context.Background()
	names, _ := l.Registry().Names(ctx)
	for _, n := range names {
		d, err := l.Load(ctx, n)
		if err != nil {
			t.Errorf("Load(%q): %v", n, err)
			continue
		}
		if !l.policies.Has(d.Type) {
			t.Errorf("Load(%q) type %q not registered", n, d.Type)
		}
	}
}

func TestLoadResolvesAssets(t *testing.T) {
	l := newLoader(t, testutil.Decorations(t))
	ctx := context.Background()

	santa, err := l.Load(ctx, "santa")
	if err != nil {
		t.Fatal(err)
	}
	want := Descriptor{
		Name:    "santa",
		Type:    "following",
		Overlay: "santa/decoration.png",
		Mask:    "santa/mask.png",
		Example: "santa/example.png",
	}
	if santa != want {
		t.Errorf("santa = %+v, want %+v", santa, want)
	}

	crown, err := l.Load(ctx, "crown")
	if err != nil {
		t.Fatal(err)
	}
	if crown.Mask != "default/mask.png" || !crown.MaskFallback {
		t.Errorf("crown should fall back to the default mask, got %+v", crown)
	}

	def, err := l.Load(ctx, DefaultName)
	if err != nil {
		t.Fatal(err)
	}
	if def.HasOverlay() || def.MaskFallback {
		t.Errorf("default = %+v", def)
	}
}

func TestLoadNotFound(t *testing.T) {
	l := newLoader(t, testutil.Decorations(t))
	d, err := l.Load(context.Background(), "doesnotexist")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if d != (Descriptor{}) {
		t.Errorf("partial descriptor returned: %+v", d)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	cases := map[string][]byte{
		"malformed":    []byte(`{"type": `),
		"missing type": []byte(`{"name": "x"}`),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			b := testutil.Decorations(t)
			testutil.WriteFile(t, b.Root(), "broken/config.json", data)
			_, err := newLoader(t, b).Load(context.Background(), "broken")
			if !errors.Is(err, errs.ErrInvalidConfig) {
				t.Fatalf("want ErrInvalidConfig, got %v", err)
			}
		})
	}

	t.Run("missing config", func(t *testing.T) {
		b := testutil.Decorations(t)
		testutil.WriteFile(t, b.Root(), "bare/mask.png", testutil.CircleMask(t, 256))
		_, err := newLoader(t, b).Load(context.Background(), "bare")
		if !errors.Is(err, errs.ErrInvalidConfig) {
			t.Fatalf("want ErrInvalidConfig, got %v", err)
		}
	})
}

func TestLoadUnknownTypeIsRejected(t *testing.T) {
	b := testutil.Decorations(t)
	testutil.WriteFile(t, b.Root(), "vip/config.json", []byte(`{"type": "vip"}`))
	_, err := newLoader(t, b).Load(context.Background(), "vip")
	if !errors.Is(err, errs.ErrUnknownType) || !errors.Is(err, errs.ErrInvalidConfig) {
		t.Fatalf("want ErrUnknownType, got %v", err)
	}
}

func TestLoadWithoutDefaultMask(t *testing.T) {
	b := testutil.Decorations(t)
	if err := os.Remove(filepath.Join(b.Root(), "default", "mask.png")); err != nil {
		t.Fatal(err)
	}
	_, err := newLoader(t, b).Load(context.Background(), "crown")
	if !errors.Is(err, errs.ErrAssetMissing) {
		t.Fatalf("want ErrAssetMissing, got %v", err)
	}
}

func TestGate(t *testing.T) {
	l := newLoader(t, testutil.Decorations(t))
	g := NewGate(l.policies)
	ctx := context.Background()

	santa, _ := l.Load(ctx, "santa")
	crown, _ := l.Load(ctx, "crown")

	if ok, err := g.CanUse(ctx, crown, "anyone"); err != nil || !ok {
		t.Errorf("crown: %v, %v", ok, err)
	}
	if ok, err := g.CanUse(ctx, santa, "stranger"); err != nil || ok {
		t.Errorf("santa stranger: %v, %v", ok, err)
	}
	// self passes with an empty relationship graph
	if ok, err := g.CanUse(ctx, santa, "RealA10N"); err != nil || !ok {
		t.Errorf("santa self: %v, %v", ok, err)
	}
	if err := g.Authorize(ctx, santa, "stranger"); !errors.Is(err, errs.ErrAccessDenied) {
		t.Errorf("Authorize: want ErrAccessDenied, got %v", err)
	}
	if err := g.Authorize(ctx, santa, "reala10n"); err != nil {
		t.Errorf("Authorize self: %v", err)
	}
}

func TestCheckNames(t *testing.T) {
	if err := CheckNames([]string{"santa", "crown", "default"}); err != nil {
		t.Errorf("unexpected conflict: %v", err)
	}
	if err := CheckNames([]string{"hat", "tophat"}); err == nil {
		t.Error("expected substring conflict")
	}
}

func TestValidateFixture(t *testing.T) {
	l := newLoader(t, testutil.Decorations(t))
	if err := Validate(context.Background(), l); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	b := testutil.Decorations(t)
	// wrong mask size and an overlay smaller than a profile picture
	testutil.WriteFile(t, b.Root(), "tiny/config.json", []byte(`{"type": "default"}`))
	testutil.WriteFile(t, b.Root(), "tiny/mask.png", testutil.CircleMask(t, 128))
	testutil.WriteFile(t, b.Root(), "tiny/decoration.png", testutil.PNG(t, 200, 200, color.White))

	err := Validate(context.Background(), newLoader(t, b))
	if !errors.Is(err, errs.ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

type countingBucket struct {
	storage.Bucket
	lists int
}

func (c *countingBucket) List(ctx context.Context) ([]string, error) {
	c.lists++
	return c.Bucket.List(ctx)
}

func TestLoadAllListsStorageOnce(t *testing.T) {
	b := &countingBucket{Bucket: testutil.Decorations(t)}
	l := newLoader(t, b)
	ctx := context.Background()

	b.lists = 0
	ds, err := l.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 3 || b.lists != 1 {
		t.Errorf("LoadAll: %d descriptors, %d listings; want 3, 1", len(ds), b.lists)
	}

	b.lists = 0
	if err := Validate(ctx, l); err != nil {
		t.Fatal(err)
	}
	if b.lists != 1 {
		t.Errorf("Validate listed storage %d times", b.lists)
	}

	// single loads still see the current listing
	b.lists = 0
	if _, err := l.Load(ctx, "santa"); err != nil || b.lists != 1 {
		t.Errorf("Load: err %v, %d listings", err, b.lists)
	}
}

func TestValidateDefaultWithoutMask(t *testing.T) {
	b := testutil.Decorations(t)
	if err := os.Remove(filepath.Join(b.Root(), DefaultName, MaskName)); err != nil {
		t.Fatal(err)
	}
	err := Validate(context.Background(), newLoader(t, b))
	if !errors.Is(err, errs.ErrAssetMissing) {
		t.Fatalf("want ErrAssetMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "default decoration must contain a mask") {
		t.Errorf("error does not name the default mask: %v", err)
	}
}
