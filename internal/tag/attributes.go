package tag

import (
	"fmt"
	"html/template"
	"slices"
	"strings"

	"github.com/a-h/templ"
)

// ClassKey is the attribute whose value is treated as a token list.
const ClassKey = "class"

// Attributes maps attribute names to values.
//
// The class attribute accepts a string of space separated tokens, a []string,
// a map[string]bool (token kept iff true), a templ.KeyValue[string, bool] or a
// []any mixing those forms. Values under the data and aria keys may be maps,
// which expand into prefixed attributes.
type Attributes map[string]any

// FromTempl converts templ attributes into an Attributes bag.
func FromTempl(attrs templ.Attributes) Attributes {
	if attrs == nil {
		return nil
	}
	out := make(Attributes, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// Get returns the value stored under key, or nil.
func (a Attributes) Get(key string) any {
	if a == nil {
		return nil
	}
	return a[key]
}

// Has reports whether key is set.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Clone returns a shallow copy of the bag.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge returns a new bag holding a overlaid with overrides. Plain keys from
// overrides replace stored values. A class value from overrides is reduced to
// its truthy tokens, so conditional maps drop the tokens they mark false.
func (a Attributes) Merge(overrides Attributes) Attributes {
	out := a.Clone()
	for k, v := range overrides {
		if k == ClassKey {
			out[k] = strings.Join(Classes(v), " ")
			continue
		}
		out[k] = v
	}
	return out
}

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// String serialises the bag as HTML attributes, e.g. class="post-title".
// Keys are emitted in sorted order; nil and false values are skipped and true
// renders the bare attribute name.
func (a Attributes) String() string {
	parts := make([]string, 0, len(a))
	for _, key := range a.Keys() {
		parts = append(parts, renderAttribute(key, a[key])...)
	}
	return strings.Join(parts, " ")
}

func renderAttribute(key string, value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		if !v {
			return nil
		}
		return []string{key}
	}

	if key == ClassKey {
		return []string{pair(key, strings.Join(Classes(value), " "))}
	}

	if key == "data" || key == "aria" {
		if nested, ok := nestedAttributes(value); ok {
			var out []string
			for _, sub := range nested.Keys() {
				name := key + "-" + strings.ReplaceAll(sub, "_", "-")
				out = append(out, renderAttribute(name, nested[sub])...)
			}
			return out
		}
	}

	switch v := value.(type) {
	case string:
		return []string{pair(key, v)}
	case []string:
		return []string{pair(key, strings.Join(v, " "))}
	case templ.SafeURL:
		return []string{pair(key, string(v))}
	default:
		return []string{pair(key, fmt.Sprint(v))}
	}
}

func nestedAttributes(value any) (Attributes, bool) {
	switch v := value.(type) {
	case Attributes:
		return v, true
	case map[string]any:
		return Attributes(v), true
	case templ.Attributes:
		return FromTempl(v), true
	case map[string]string:
		out := make(Attributes, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func pair(key, value string) string {
	return key + `="` + templ.EscapeString(value) + `"`
}

// Classes reduces a class value to its ordered, de-duplicated truthy tokens.
func Classes(value any) []string {
	var tokens []string
	collectClasses(value, &tokens)

	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

func collectClasses(value any, tokens *[]string) {
	switch v := value.(type) {
	case nil:
	case string:
		*tokens = append(*tokens, strings.Fields(v)...)
	case template.HTMLAttr:
		*tokens = append(*tokens, strings.Fields(string(v))...)
	case []string:
		for _, s := range v {
			*tokens = append(*tokens, strings.Fields(s)...)
		}
	case []any:
		for _, item := range v {
			collectClasses(item, tokens)
		}
	case map[string]bool:
		for _, k := range sortedKeys(v) {
			if v[k] {
				*tokens = append(*tokens, strings.Fields(k)...)
			}
		}
	case map[string]any:
		for _, k := range sortedKeys(v) {
			if truthy(v[k]) {
				*tokens = append(*tokens, strings.Fields(k)...)
			}
		}
	case templ.KeyValue[string, bool]:
		if v.Value {
			*tokens = append(*tokens, strings.Fields(v.Key)...)
		}
	case []templ.KeyValue[string, bool]:
		for _, kv := range v {
			collectClasses(kv, tokens)
		}
	case fmt.Stringer:
		*tokens = append(*tokens, strings.Fields(v.String())...)
	default:
		*tokens = append(*tokens, strings.Fields(fmt.Sprint(v))...)
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	default:
		return true
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
