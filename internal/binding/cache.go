package binding

import "codeberg.org/mutker/duckovhaptics/internal/host"

// TypeCache resolves host type names. Only hits are kept: a name that is not
// loaded yet is looked up again on the next call.
type TypeCache struct {
	u         host.Universe
	namespace string
	types     map[string]host.Type
}

func NewTypeCache(u host.Universe, namespace string) *TypeCache {
	return &TypeCache{
		u:         u,
		namespace: namespace,
		types:     make(map[string]host.Type),
	}
}

// Lookup finds a type by its bare name, then by "<namespace>.<name>"
func (c *TypeCache) Lookup(name string) (host.Type, bool) {
	if t, ok := c.types[name]; ok {
		return t, true
	}

	qualified := ""
	if c.namespace != "" {
		qualified = c.namespace + "." + name
	}

	var found host.Type
	for _, t := range c.u.EnumerateLoadedTypes() {
		switch t.Name() {
		case name:
			c.types[name] = t
			return t, true
		case qualified:
			if found == nil {
				found = t
			}
		}
	}

	if found == nil {
		return nil, false
	}
	c.types[name] = found

	return found, true
}

// FindStaticHost finds the first loaded type exposing a public static member
// named member
func (c *TypeCache) FindStaticHost(member string) (host.Type, bool) {
	key := "*." + member
	if t, ok := c.types[key]; ok {
		return t, true
	}

	for _, t := range c.u.EnumerateLoadedTypes() {
		if m, ok := c.u.FindMember(t, member); ok && m.Static() {
			c.types[key] = t
			return t, true
		}
	}

	return nil, false
}

// Forget drops the cached type for name
func (c *TypeCache) Forget(name string) {
	delete(c.types, name)
}

// ForgetStaticHost drops the cached host of the static member
func (c *TypeCache) ForgetStaticHost(member string) {
	delete(c.types, "*."+member)
}

// Invalidate forgets every cached type
func (c *TypeCache) Invalidate() {
	clear(c.types)
}

// Len returns the number of cached entries
func (c *TypeCache) Len() int {
	return len(c.types)
}
