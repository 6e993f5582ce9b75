package policy

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/youruser/profileart/internal/errs"
)

// fakeGraph answers from fixed sets and counts calls.
type fakeGraph struct {
	follows map[string]bool
	stars   map[string]bool
	calls   int
	err     error
}

func (g *fakeGraph) IsFollowing(_ context.Context, user, _ string) (bool, error) {
	g.calls++
	return g.follows[user], g.err
}

func (g *fakeGraph) IsStarred(_ context.Context, _, _, user string) (bool, error) {
	g.calls++
	return g.stars[user], g.err
}

const typesJSON = `[
	{"type": "default"},
	{"type": "following", "label": {"text": "followers only", "color": "orange"}},
	{"type": "stars", "policy": "stargazers", "label": {"text": "stargazers", "color": "yellow"}}
]`

func loadTable(t *testing.T, g Graph) *Table {
	t.Helper()
	tbl, err := Load([]byte(typesJSON), Deps{Graph: g, Owner: "RealA10N", Repo: "RealA10N"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tbl
}

func TestLoadKeepsRegistrationOrder(t *testing.T) {
	tbl := loadTable(t, &fakeGraph{})
	want := []string{"default", "following", "stars"}
	if got := tbl.Order(); !reflect.DeepEqual(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
}

func TestLabelURL(t *testing.T) {
	tbl := loadTable(t, &fakeGraph{})

	got, ok := tbl.LabelURL("following")
	if !ok {
		t.Fatal("following should have a label")
	}
	if want := "https://img.shields.io/badge/-followers only-orange"; got != want {
		t.Errorf("LabelURL = %q, want %q", got, want)
	}
	if _, ok := tbl.LabelURL("default"); ok {
		t.Error("default should have no label")
	}
	if tbl.HasLabel("default") || !tbl.HasLabel("stars") || tbl.HasLabel("missing") {
		t.Error("HasLabel mismatch")
	}
}

func TestCheckAdmissionDefault(t *testing.T) {
	tbl := loadTable(t, &fakeGraph{})
	ok, err := tbl.CheckAdmission(context.Background(), "default", "anyone")
	if err != nil || !ok {
		t.Fatalf("default admission = %v, %v", ok, err)
	}
}

func TestCheckAdmissionUnknownPolicy(t *testing.T) {
	tbl := loadTable(t, &fakeGraph{})
	_, err := tbl.CheckAdmission(context.Background(), "vip", "anyone")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFollowingSelfAlwaysPasses(t *testing.T) {
	g := &fakeGraph{}
	tbl := loadTable(t, g)
	for _, who := range []string{"RealA10N", "reala10n"} {
		ok, err := tbl.CheckAdmission(context.Background(), "following", who)
		if err != nil || !ok {
			t.Errorf("self %q admission = %v, %v", who, ok, err)
		}
	}
	if g.calls != 0 {
		t.Errorf("self check should not query the graph, got %d calls", g.calls)
	}
}

func TestFollowingQueriesGraph(t *testing.T) {
	g := &fakeGraph{follows: map[string]bool{"mark": true}}
	tbl := loadTable(t, g)
	ctx := context.Background()

	if ok, _ := tbl.CheckAdmission(ctx, "following", "mark"); !ok {
		t.Error("follower denied")
	}
	if ok, _ := tbl.CheckAdmission(ctx, "following", "rober"); ok {
		t.Error("non-follower admitted")
	}

	g.err = errors.New("boom")
	if _, err := tbl.CheckAdmission(ctx, "following", "rober"); err == nil {
		t.Error("graph error swallowed")
	}
}

func TestStargazers(t *testing.T) {
	g := &fakeGraph{stars: map[string]bool{"mark": true}}
	tbl := loadTable(t, g)
	ctx := context.Background()
	if ok, _ := tbl.CheckAdmission(ctx, "stars", "mark"); !ok {
		t.Error("stargazer denied")
	}
	if ok, _ := tbl.CheckAdmission(ctx, "stars", "rober"); ok {
		t.Error("non-stargazer admitted")
	}
	if ok, _ := tbl.CheckAdmission(ctx, "stars", "RealA10N"); !ok {
		t.Error("owner denied")
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"malformed":       `{"type":`,
		"missing type":    `[{"label": {"text": "x", "color": "red"}}]`,
		"duplicate":       `[{"type": "default"}, {"type": "default"}]`,
		"partial label":   `[{"type": "default", "label": {"text": "x"}}]`,
		"unknown policy":  `[{"type": "vip"}]`,
		"graph required":  `[{"type": "following"}]`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var g Graph
			if name != "graph required" {
				g = &fakeGraph{}
			}
			_, err := Load([]byte(data), Deps{Graph: g, Owner: "o"})
			if !errors.Is(err, errs.ErrInvalidConfig) {
				t.Fatalf("want ErrInvalidConfig, got %v", err)
			}
		})
	}
}
