package binding

import (
	"slices"

	"codeberg.org/mutker/duckovhaptics/internal/host"
	"codeberg.org/mutker/duckovhaptics/internal/logger"
)

// Record holds what is needed to remove one installed shim. Target is nil
// for static notification points.
type Record struct {
	Spec    NotificationSpec
	Type    host.Type
	Member  host.Member
	Handler host.Handler
	Target  host.Instance
}

// Static reports whether the record is bound to a static notification point
func (r *Record) Static() bool {
	return r.Target == nil
}

// Registry binds notification specs into a host universe. Every installed
// shim has exactly one live Record.
type Registry struct {
	u       host.Universe
	cache   *TypeCache
	sink    Sink
	records []*Record
	log     logger.Logger
}

func NewRegistry(u host.Universe, cache *TypeCache, sink Sink) *Registry {
	return &Registry{
		u:     u,
		cache: cache,
		sink:  sink,
		log:   logger.Component("binding"),
	}
}

// Bind installs a shim for every spec that resolves and returns the new
// records. Unresolved specs are skipped; specs already bound are not bound
// again.
func (r *Registry) Bind(specs []NotificationSpec) []*Record {
	var bound []*Record
	for _, spec := range specs {
		if r.isBound(spec) {
			continue
		}
		if rec := r.bindOne(spec); rec != nil {
			r.records = append(r.records, rec)
			bound = append(bound, rec)
		}
	}

	return bound
}

func (r *Registry) bindOne(spec NotificationSpec) *Record {
	t, ok := r.resolve(spec)
	if !ok {
		r.log.Debug().Str("spec", spec.String()).Msg("Host type not loaded")
		return nil
	}

	m, ok := r.u.FindMember(t, spec.NotificationName)
	if !ok {
		// The cached type may have been unloaded and loaded again
		r.forget(spec)
		if fresh, found := r.resolve(spec); found && fresh != t {
			t = fresh
			m, ok = r.u.FindMember(t, spec.NotificationName)
		}
	}
	if !ok {
		r.log.Debug().Str("spec", spec.String()).Str("type", t.Name()).Msg("Notification point not found")
		return nil
	}

	var target host.Instance
	if !m.Static() {
		target, ok = r.u.FindLiveInstance(t)
		if !ok {
			r.log.Debug().Str("spec", spec.String()).Msg("No live instance to bind to")
			return nil
		}
	}

	arity, err := r.u.GetMemberArity(m)
	if err != nil {
		r.log.Warn().Err(err).Str("spec", spec.String()).Msg("Failed to read notification arity")
		return nil
	}

	shim, ok := newShim(spec.Kind, arity, r.sink)
	if !ok || !spec.Accepts(arity) {
		r.log.Debug().Str("spec", spec.String()).Int("arity", arity).Msg("Unsupported notification arity")
		return nil
	}

	h, err := r.u.InstallHandler(m, target, shim)
	if err != nil {
		r.log.Warn().Err(err).Str("spec", spec.String()).Msg("Failed to install handler")
		return nil
	}

	r.log.Info().
		Str("spec", spec.String()).
		Str("type", t.Name()).
		Int("arity", arity).
		Bool("static", target == nil).
		Msg("Bound notification")

	return &Record{Spec: spec, Type: t, Member: m, Handler: h, Target: target}
}

func (r *Registry) resolve(spec NotificationSpec) (host.Type, bool) {
	if spec.HostTypeName == "" {
		return r.cache.FindStaticHost(spec.NotificationName)
	}

	return r.cache.Lookup(spec.HostTypeName)
}

func (r *Registry) forget(spec NotificationSpec) {
	if spec.HostTypeName == "" {
		r.cache.ForgetStaticHost(spec.NotificationName)
		return
	}
	r.cache.Forget(spec.HostTypeName)
}

// Unbind removes the handlers of the given records. Records that are not
// live are skipped, so unbinding twice is harmless. Removal errors are logged
// and do not stop the remaining records.
func (r *Registry) Unbind(records []*Record) {
	for _, rec := range records {
		i := slices.Index(r.records, rec)
		if rec == nil || i < 0 {
			continue
		}
		r.records = slices.Delete(r.records, i, i+1)

		if err := r.u.RemoveHandler(rec.Member, rec.Target, rec.Handler); err != nil {
			r.log.Warn().Err(err).Str("spec", rec.Spec.String()).Msg("Failed to remove handler")
			continue
		}
		r.log.Debug().Str("spec", rec.Spec.String()).Msg("Unbound notification")
	}
}

// UnbindAll removes every live record
func (r *Registry) UnbindAll() {
	r.Unbind(slices.Clone(r.records))
}

// Records returns a copy of the live records
func (r *Registry) Records() []*Record {
	return slices.Clone(r.records)
}

// Len returns the number of live records
func (r *Registry) Len() int {
	return len(r.records)
}

func (r *Registry) isBound(spec NotificationSpec) bool {
	key := spec.key()
	for _, rec := range r.records {
		if rec.Spec.key() == key {
			return true
		}
	}

	return false
}
