// scope.go defines the Scope: contextual state merged into every captured event.

package aisen

// DefaultMaxBreadcrumbs is the breadcrumb capacity of a Scope unless configured otherwise.
const DefaultMaxBreadcrumbs = 100

// User identifies the user affected by an event.
type User struct {
	ID        string            `json:"id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Username  string            `json:"username,omitempty"`
	IPAddress string            `json:"ip_address,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Data = copyStringMap(u.Data)
	return &c
}

// Scope holds the breadcrumbs, tags, extra data and user of a chain.
//
// A Scope is not safe for concurrent use on its own. Scopes owned by a
// ScopeStack are only mutated under the stack lock (see Hub.ConfigureScope);
// scopes returned by Hub.CurrentScope are private copies.
type Scope struct {
	breadcrumbs *breadcrumbBuffer
	tags        map[string]string
	extra       map[string]any
	contexts    map[string]map[string]any
	user        *User
	level       Level
	fingerprint []string
	state       any
}

// NewScope creates an empty Scope holding at most maxBreadcrumbs breadcrumbs.
func NewScope(maxBreadcrumbs int) *Scope {
	return &Scope{
		breadcrumbs: newBreadcrumbBuffer(maxBreadcrumbs),
		tags:        make(map[string]string),
		extra:       make(map[string]any),
		contexts:    make(map[string]map[string]any),
	}
}

// Clone returns a deep copy of the scope. Mutating the copy never affects s.
func (s *Scope) Clone() *Scope {
	contexts := make(map[string]map[string]any, len(s.contexts))
	for k, v := range s.contexts {
		contexts[k] = copyAnyMap(v)
	}

	tags := copyStringMap(s.tags)
	if tags == nil {
		tags = make(map[string]string)
	}
	extra := copyAnyMap(s.extra)
	if extra == nil {
		extra = make(map[string]any)
	}

	return &Scope{
		breadcrumbs: s.breadcrumbs.clone(),
		tags:        tags,
		extra:       extra,
		contexts:    contexts,
		user:        s.user.clone(),
		level:       s.level,
		fingerprint: append([]string(nil), s.fingerprint...),
		state:       s.state,
	}
}

// AddBreadcrumb appends a breadcrumb, evicting the oldest once the scope is full.
func (s *Scope) AddBreadcrumb(crumb Breadcrumb) {
	s.breadcrumbs.Add(crumb)
}

// Breadcrumbs returns the breadcrumbs oldest first.
func (s *Scope) Breadcrumbs() []Breadcrumb {
	return s.breadcrumbs.All()
}

// ClearBreadcrumbs drops all breadcrumbs.
func (s *Scope) ClearBreadcrumbs() {
	s.breadcrumbs.Clear()
}

// SetTag sets a tag, replacing any previous value.
func (s *Scope) SetTag(key, value string) {
	s.tags[key] = value
}

// SetTags sets several tags at once.
func (s *Scope) SetTags(tags map[string]string) {
	for k, v := range tags {
		s.tags[k] = v
	}
}

// RemoveTag deletes a tag.
func (s *Scope) RemoveTag(key string) {
	delete(s.tags, key)
}

// Tags returns a copy of the tags.
func (s *Scope) Tags() map[string]string {
	return copyStringMap(s.tags)
}

// SetExtra sets an arbitrary extra value.
func (s *Scope) SetExtra(key string, value any) {
	s.extra[key] = value
}

// RemoveExtra deletes an extra value.
func (s *Scope) RemoveExtra(key string) {
	delete(s.extra, key)
}

// Extra returns a copy of the extra values.
func (s *Scope) Extra() map[string]any {
	return copyAnyMap(s.extra)
}

// SetContext sets a named context (for example "cxdb" or "trace").
func (s *Scope) SetContext(name string, value map[string]any) {
	s.contexts[name] = copyAnyMap(value)
}

// RemoveContext deletes a named context.
func (s *Scope) RemoveContext(name string) {
	delete(s.contexts, name)
}

// Contexts returns a copy of the named contexts.
func (s *Scope) Contexts() map[string]map[string]any {
	result := make(map[string]map[string]any, len(s.contexts))
	for k, v := range s.contexts {
		result[k] = copyAnyMap(v)
	}
	return result
}

// SetUser sets the user. A nil user clears it.
func (s *Scope) SetUser(user *User) {
	s.user = user.clone()
}

// User returns a copy of the user, or nil.
func (s *Scope) User() *User {
	return s.user.clone()
}

// SetLevel overrides the level of every event captured with this scope.
// An empty level removes the override.
func (s *Scope) SetLevel(level Level) {
	s.level = level
}

// Level returns the level override, or "" when unset.
func (s *Scope) Level() Level {
	return s.level
}

// SetFingerprint sets the grouping fingerprint used for events without one.
func (s *Scope) SetFingerprint(fingerprint []string) {
	s.fingerprint = append([]string(nil), fingerprint...)
}

// Fingerprint returns a copy of the fingerprint.
func (s *Scope) Fingerprint() []string {
	return append([]string(nil), s.fingerprint...)
}

// State returns the opaque value attached when the scope was pushed.
func (s *Scope) State() any {
	return s.state
}

// Clear resets the scope to empty, keeping its breadcrumb capacity and state.
func (s *Scope) Clear() {
	s.breadcrumbs.Clear()
	s.tags = make(map[string]string)
	s.extra = make(map[string]any)
	s.contexts = make(map[string]map[string]any)
	s.user = nil
	s.level = ""
	s.fingerprint = nil
}
