// Package partial implements named, composable content sections for a
// template fragment.
//
// A Partial owns one Section per slot name. Sections are append-only
// buffers of content units: literal text, deferred closures evaluated at
// resolution time, templ components, and snapshots forwarded from other
// sections. Resolving a section concatenates its units in append order;
// nothing is cached between resolutions.
//
//	p := partial.New(view.New(ctx), map[string]string{"title": "Untitled"})
//	p.Write("title", "Hello", tag.Attributes{"class": "post-title"})
//	p.Write("body", func() string { return "lazy" })
//
//	html, err := p.Section("title").H1()              // <h1 class="post-title">Hello</h1>
//	sub, err := p.Section("subtitle").Optional().P()  // "" while absent
//	_, err = p.Section("footer").Required().Div()     // *RequiredError
//
// Forwarding between partials always copies the current value: writing a
// *Section into another section, or calling ContentFrom, resolves the source
// immediately. Later writes to either side do not affect the other.
//
// A Partial and its sections belong to a single render and are not safe for
// concurrent use.
package partial
