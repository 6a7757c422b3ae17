package partial

// Policy decides what gated operations do when a section is absent.
type Policy int

const (
	// PolicyOptional makes gated operations degrade silently.
	PolicyOptional Policy = iota
	// PolicyRequired makes gated operations fail with *RequiredError.
	PolicyRequired
)

// String returns the string representation of the policy
func (p Policy) String() string {
	switch p {
	case PolicyOptional:
		return "optional"
	case PolicyRequired:
		return "required"
	default:
		return "unknown"
	}
}

// Declaration wraps a section with a presence policy. Every operation on it
// resolves the section once to check presence; when the section is absent no
// callback, call-site closure or tag builder is invoked.
type Declaration struct {
	tagShortcuts

	section *Section
	policy  Policy
}

func newDeclaration(s *Section, policy Policy) *Declaration {
	d := &Declaration{section: s, policy: policy}
	d.tagShortcuts = tagShortcuts{build: d.Tag}
	return d
}

// Section returns the wrapped section.
func (d *Declaration) Section() *Section {
	return d.section
}

// Policy returns the declared policy.
func (d *Declaration) Policy() Policy {
	return d.policy
}

// gate resolves the section once and reports whether the gated operation
// should run on the resolved content.
func (d *Declaration) gate() (string, bool, error) {
	s := d.section
	ctx := s.owner.context()

	content, err := s.Resolve(ctx)
	if err != nil {
		return "", false, err
	}
	if content != "" {
		return content, true, nil
	}
	if d.policy == PolicyRequired {
		s.owner.logger.Debug(ctx, "required section missing", "section", s.name)
		return "", false, &RequiredError{Slot: s.name}
	}
	return "", false, nil
}

// Tag builds an element around the section's content when it is present. An
// absent optional section yields "".
func (d *Declaration) Tag(name string, args ...any) (string, error) {
	content, ok, err := d.gate()
	if !ok {
		return "", err
	}
	return d.section.tag(content, name, args...)
}

// Value resolves the section when it is present. An absent optional section
// yields "".
func (d *Declaration) Value() (string, error) {
	content, _, err := d.gate()
	return content, err
}

// IfPresent calls fn with the resolved content and returns its result. An
// absent optional section yields "" without calling fn.
func (d *Declaration) IfPresent(fn func(content string) (string, error)) (string, error) {
	content, ok, err := d.gate()
	if !ok {
		return "", err
	}
	return fn(content)
}

// Tap calls fn with the section when it is present and returns the
// receiver either way.
func (d *Declaration) Tap(fn func(*Section)) (*Declaration, error) {
	_, ok, err := d.gate()
	if err != nil {
		return d, err
	}
	if ok {
		fn(d.section)
	}
	return d, nil
}
