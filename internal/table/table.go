// Package table renders the decoration selection table embedded in the
// profile README. Output is deterministic so a checked-in copy can be
// compared byte for byte.
package table

import (
	"fmt"
	"html"
	"net/url"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/youruser/profileart/internal/decoration"
	"github.com/youruser/profileart/internal/policy"
)

const (
	DefaultRowSize   = 4
	DefaultAssetBase = "decorations"
	DefaultWebURL    = "https://github.com"

	indentUnit   = "    "
	exampleWidth = 128

	// RequestTitlePrefix starts the title of every decoration request issue.
	RequestTitlePrefix = "Decoration request:"

	nameToken     = "{name}"
	titleTemplate = "Decoration+request:+" + nameToken
	lineBreak     = "%0A"
)

// issueBody is the fixed body of the request issue, one entry per line.
var issueBody = []string{
	"Submit this issue to get your decorated profile picture!",
	"Please don't change the title: it tells the bot which decoration you picked.",
	"The bot will reply in a few seconds (:",
}

// Config parameterizes links in the rendered table.
type Config struct {
	Owner     string
	Repo      string
	WebURL    string // defaults to https://github.com
	AssetBase string // path prefix of example images, defaults to "decorations"
	RowSize   int    // defaults to 4
}

// Cell is one decoration in the table.
type Cell struct {
	Descriptor decoration.Descriptor
	Example    string
	Redirect   string
	LabelURL   string // empty when the type has no label
}

type Row struct {
	Cells []Cell
}

type Table struct {
	Rows []Row
}

// Builder groups descriptors by type and paginates them into rows.
type Builder struct {
	policies *policy.Table
	cfg      Config
}

func NewBuilder(policies *policy.Table, cfg Config) *Builder {
	if cfg.RowSize <= 0 {
		cfg.RowSize = DefaultRowSize
	}
	if cfg.AssetBase == "" {
		cfg.AssetBase = DefaultAssetBase
	}
	if cfg.WebURL == "" {
		cfg.WebURL = DefaultWebURL
	}
	return &Builder{policies: policies, cfg: cfg}
}

// RedirectURL is the "new issue" link that requests decoration name.
func (b *Builder) RedirectURL(name string) string {
	title := strings.ReplaceAll(titleTemplate, nameToken, url.QueryEscape(name))
	body := make([]string, len(issueBody))
	for i, line := range issueBody {
		body[i] = url.QueryEscape(line)
	}
	return fmt.Sprintf("%s/%s/%s/issues/new?title=%s&body=%s",
		strings.TrimSuffix(b.cfg.WebURL, "/"), b.cfg.Owner, b.cfg.Repo, title, strings.Join(body, lineBreak))
}

// Build orders descriptors by type registration order, then by name, and
// slices them into rows. Types without descriptors produce nothing, and
// descriptors of unregistered types are left out.
func (b *Builder) Build(descriptors []decoration.Descriptor) Table {
	groups := make(map[string][]decoration.Descriptor)
	for _, d := range descriptors {
		groups[d.Type] = append(groups[d.Type], d)
	}

	var cells []Cell
	for _, typ := range b.policies.Order() {
		group := groups[typ]
		slices.SortFunc(group, func(x, y decoration.Descriptor) int {
			return strings.Compare(x.Name, y.Name)
		})
		for _, d := range group {
			c := Cell{
				Descriptor: d,
				Example:    b.cfg.AssetBase + "/" + d.Example,
				Redirect:   b.RedirectURL(d.Name),
			}
			if u, ok := b.policies.LabelURL(typ); ok {
				c.LabelURL = u
			}
			cells = append(cells, c)
		}
	}

	var t Table
	for start := 0; start < len(cells); start += b.cfg.RowSize {
		end := min(start+b.cfg.RowSize, len(cells))
		t.Rows = append(t.Rows, Row{Cells: cells[start:end]})
	}
	return t
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Lines renders the table as indented markup, one element per line.
func (t Table) Lines() []string {
	var w writer
	w.line(0, "<table>")
	for _, row := range t.Rows {
		w.line(1, "<tr>")
		for _, c := range row.Cells {
			w.cell(2, c)
		}
		w.line(1, "</tr>")
	}
	w.line(0, "</table>")
	return w.lines
}

// HTML joins Lines with newlines, ending with one.
func (t Table) HTML() string {
	return strings.Join(t.Lines(), "\n") + "\n"
}

type writer struct {
	lines []string
}

func (w *writer) line(depth int, s string) {
	w.lines = append(w.lines, strings.Repeat(indentUnit, depth)+s)
}

func (w *writer) cell(depth int, c Cell) {
	w.line(depth, `<td align="center">`)
	w.line(depth+1, fmt.Sprintf(`<a href="%s">`, c.Redirect))
	w.line(depth+2, fmt.Sprintf(`<img src="%s" width="%d"/>`, c.Example, exampleWidth))
	w.line(depth+1, "</a>")
	w.line(depth+1, "<br/>")
	w.line(depth+1, "<b>"+html.EscapeString(Capitalize(c.Descriptor.Name))+"</b>")
	if c.LabelURL != "" {
		w.line(depth+1, "<br/>")
		w.line(depth+1, fmt.Sprintf(`<img src="%s"/>`, c.LabelURL))
	}
	w.line(depth, "</td>")
}

// DriftError reports the first line where a stored table differs from a
// freshly generated one.
type DriftError struct {
	Line      int // 1-based; 0 when only the line count differs
	Generated string
	Stored    string
}

func (e *DriftError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("select table is not up to date: %s", e.Generated)
	}
	return fmt.Sprintf("select table is not up to date: line %d: generated %q, stored %q", e.Line, e.Generated, e.Stored)
}

// CheckDrift compares generated against stored line by line.
func CheckDrift(generated, stored string) error {
	gen := strings.Split(strings.TrimSuffix(generated, "\n"), "\n")
	old := strings.Split(strings.TrimSuffix(stored, "\n"), "\n")
	for i := 0; i < len(gen) && i < len(old); i++ {
		if gen[i] != old[i] {
			return &DriftError{Line: i + 1, Generated: gen[i], Stored: old[i]}
		}
	}
	if len(gen) != len(old) {
		return &DriftError{Generated: fmt.Sprintf("%d lines generated, %d stored", len(gen), len(old))}
	}
	return nil
}

// ParseRequestTitle extracts the decoration name from a request issue title.
func ParseRequestTitle(title string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(title), RequestTitlePrefix)
	if !ok {
		return "", false
	}
	name := strings.TrimSpace(rest)
	return name, name != ""
}
