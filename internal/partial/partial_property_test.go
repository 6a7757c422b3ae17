//go:build property

package partial

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSectionProperties validates ordering, presence and snapshot properties
// of sections.
func TestSectionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: resolution concatenates every unit in append order
	properties.Property("resolve preserves append order", prop.ForAll(
		func(parts []string, lazy []bool) bool {
			p := newPartial(nil)
			for i, part := range parts {
				part := part
				if i < len(lazy) && lazy[i] {
					p.Write("body", func() string { return part })
					continue
				}
				p.Write("body", part)
			}
			out, err := p.Read("body")
			return err == nil && out == strings.Join(parts, "")
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.Bool()),
	))

	// Property: presence is true iff the section resolves to a non-empty
	// string, whether its parts are literal or deferred
	properties.Property("present iff content or non-empty local", prop.ForAll(
		func(parts []string, lazy []bool, local string) bool {
			p := newPartial(map[string]string{"title": local})
			for i, part := range parts {
				if i < len(lazy) && lazy[i] {
					p.Write("title", func() string { return part })
					continue
				}
				p.Write("title", part)
			}

			var expected bool
			if len(parts) == 0 {
				expected = local != ""
			} else {
				expected = strings.Join(parts, "") != ""
			}
			return p.Present("title") == expected
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.Bool()),
		gen.AlphaString(),
	))

	// Property: a required declaration fails iff the section is absent, and
	// never calls back when it does
	properties.Property("required gate matches presence", prop.ForAll(
		func(content string) bool {
			p := newPartial(nil)
			p.Write("title", content)

			calls := 0
			_, err := p.Section("title").Required().IfPresent(func(s string) (string, error) {
				calls++
				return s, nil
			})

			if p.Present("title") {
				return err == nil && calls == 1
			}
			return err != nil && calls == 0
		},
		gen.AlphaString(),
	))

	// Property: snapshots are independent of later writes on either side
	properties.Property("direct pass captures the value at append time", prop.ForAll(
		func(before, after, extra string) bool {
			outer, inner := newPartial(nil), newPartial(nil)
			outer.Write("title", before)
			inner.Write("title", outer.Section("title"))

			outer.Write("title", after)
			inner.Write("title", extra)

			in, err1 := inner.Read("title")
			out, err2 := outer.Read("title")
			return err1 == nil && err2 == nil && in == before+extra && out == before+after
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	// Property: renamed ContentFrom copies the source value and leaves the source alone
	properties.Property("content from rename copies value", prop.ForAll(
		func(value, suffix string) bool {
			outer, inner := newPartial(nil), newPartial(nil)
			deferValue(outer, "title", value)
			if err := inner.ContentFromMap(outer, map[string]string{"title": "byline"}); err != nil {
				return false
			}
			inner.Write("byline", suffix)

			in, _ := inner.Read("byline")
			out, _ := outer.Read("title")
			return in == value+suffix && out == value
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func deferValue(p *Partial, name, value string) {
	p.Section(name).Defer(func(context.Context) (string, error) { return value, nil })
}
