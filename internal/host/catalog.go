package host

import (
	"go/token"
	"reflect"
	"sync"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
)

// Catalog is a Universe for Go hosts. A host defines its types and their
// notification points at runtime; plugins discover them by name only.
//
// Notification points carry a func signature chosen by the host, e.g.
//
//	gun := cat.Define("Duckov.ItemAgent_Gun")
//	shoot, _ := gun.StaticEvent("OnMainCharacterShootEvent", (func(*Gun))(nil))
//	...
//	shoot.Raise(g)
//
// Installed shims are adapted to that signature with reflect.MakeFunc.
type Catalog struct {
	mu    sync.RWMutex
	types []*TypeDef
}

var _ Universe = (*Catalog)(nil)

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Define loads a new type. Defining an already loaded name returns the
// existing type.
func (c *Catalog) Define(name string) *TypeDef {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.types {
		if t.name == name {
			return t
		}
	}

	t := &TypeDef{name: name, members: make(map[string]*member), loaded: true}
	c.types = append(c.types, t)

	return t
}

// Unload removes a type from the universe. Handlers still attached to it can
// no longer be removed through the catalog.
func (c *Catalog) Unload(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range c.types {
		if t.name == name {
			t.unload()
			c.types = append(c.types[:i], c.types[i+1:]...)
			return
		}
	}
}

func (c *Catalog) EnumerateLoadedTypes() []Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	types := make([]Type, len(c.types))
	for i, t := range c.types {
		types[i] = t
	}

	return types
}

func (c *Catalog) FindMember(t Type, name string) (Member, bool) {
	td, ok := t.(*TypeDef)
	if !ok || !td.isLoaded() || !token.IsExported(name) {
		return nil, false
	}

	td.mu.RLock()
	defer td.mu.RUnlock()

	m, ok := td.members[name]
	if !ok {
		return nil, false
	}

	return m, true
}

func (c *Catalog) GetMemberArity(m Member) (int, error) {
	mm, ok := m.(*member)
	if !ok {
		return 0, errors.New().WithData(ErrMemberNotFound, m)
	}

	return mm.sig.NumIn(), nil
}

func (c *Catalog) InstallHandler(m Member, target Instance, shim Shim) (Handler, error) {
	ev, err := c.resolve(m, target)
	if err != nil {
		return nil, err
	}
	if shim == nil {
		return nil, errors.New().WithMessage(ErrArityMismatch, "nil shim")
	}
	if n := ev.sig.NumIn(); n != shim.Arity() {
		return nil, errors.New().WithData(ErrArityMismatch, map[string]int{"member": n, "shim": shim.Arity()})
	}

	fn := reflect.MakeFunc(ev.sig, func(in []reflect.Value) []reflect.Value {
		switch s := shim.(type) {
		case Shim0:
			s()
		case Shim1:
			s(valueOf(in[0]))
		case Shim2:
			s(valueOf(in[0]), valueOf(in[1]))
		}

		return nil
	})

	return ev.add(fn), nil
}

func (c *Catalog) RemoveHandler(m Member, target Instance, h Handler) error {
	ev, err := c.resolve(m, target)
	if err != nil {
		return err
	}

	sub, ok := h.(*subscription)
	if !ok || !ev.remove(sub) {
		return errors.New().WithData(ErrHandlerNotFound, m.Name())
	}

	return nil
}

func (c *Catalog) FindLiveInstance(t Type) (Instance, bool) {
	td, ok := t.(*TypeDef)
	if !ok || !td.isLoaded() {
		return nil, false
	}

	td.mu.RLock()
	defer td.mu.RUnlock()

	for _, o := range td.objects {
		if o.alive {
			return o, true
		}
	}

	return nil, false
}

// resolve finds the event a member refers to on target
func (c *Catalog) resolve(m Member, target Instance) (*Event, error) {
	mm, ok := m.(*member)
	if !ok {
		return nil, errors.New().WithData(ErrMemberNotFound, m)
	}
	if !mm.typ.isLoaded() {
		return nil, errors.New().WithData(ErrTypeUnavailable, mm.typ.name)
	}

	if mm.static {
		if target != nil {
			return nil, errors.New().WithMessage(ErrTargetMismatch, "static member given a target")
		}
		return mm.event, nil
	}

	obj, ok := target.(*Object)
	if !ok || obj.typ != mm.typ {
		return nil, errors.New().WithData(ErrTargetMismatch, mm.name)
	}

	ev := obj.Event(mm.name)
	if ev == nil {
		return nil, errors.New().WithData(ErrMemberNotFound, mm.name)
	}

	return ev, nil
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}

	return v.Interface()
}

// TypeDef is a host type defined in a Catalog
type TypeDef struct {
	name    string
	mu      sync.RWMutex
	members map[string]*member
	objects []*Object
	loaded  bool
}

func (t *TypeDef) Name() string {
	return t.name
}

// StaticEvent declares a type-level notification point. signature must be a
// func type without results, typically a typed nil such as (func(string))(nil).
func (t *TypeDef) StaticEvent(name string, signature any) (*Event, error) {
	m, err := t.declare(name, signature, true)
	if err != nil {
		return nil, err
	}

	return m.event, nil
}

// InstanceEvent declares a per-object notification point
func (t *TypeDef) InstanceEvent(name string, signature any) error {
	_, err := t.declare(name, signature, false)
	return err
}

// NewObject creates a live instance of the type
func (t *TypeDef) NewObject() *Object {
	t.mu.Lock()
	defer t.mu.Unlock()

	o := &Object{typ: t, alive: true, events: make(map[string]*Event)}
	for name, m := range t.members {
		if !m.static {
			o.events[name] = newEvent(m.sig)
		}
	}
	t.objects = append(t.objects, o)

	return o
}

func (t *TypeDef) declare(n string, signature any, static bool) (*member, error) {
	sig := reflect.TypeOf(signature)
	if sig == nil || sig.Kind() != reflect.Func || sig.NumOut() != 0 {
		return nil, errors.New().WithData(ErrInvalidSignature, n)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.members[n]; exists {
		return nil, errors.New().WithData(ErrDuplicateMember, n)
	}

	m := &member{typ: t, name: n, static: static, sig: sig}
	if static {
		m.event = newEvent(sig)
	}
	t.members[n] = m

	return m, nil
}

func (t *TypeDef) isLoaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.loaded
}

func (t *TypeDef) unload() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loaded = false
}

type member struct {
	typ    *TypeDef
	name   string
	static bool
	sig    reflect.Type
	event  *Event
}

func (m *member) Name() string { return m.name }
func (m *member) Static() bool { return m.static }

// Object is a live instance of a TypeDef
type Object struct {
	typ    *TypeDef
	alive  bool
	events map[string]*Event
}

// Event returns the instance notification point named name, or nil
func (o *Object) Event(name string) *Event {
	return o.events[name]
}

// Destroy marks the object dead; it is no longer returned by FindLiveInstance
func (o *Object) Destroy() {
	o.typ.mu.Lock()
	defer o.typ.mu.Unlock()

	o.alive = false
}
