package module

import (
	"fmt"

	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
	"go.uber.org/zap"
)

// Source yields module definitions from one collection location. A definition that
// fails to load is reported in the error slice while the others are still returned.
type Source interface {
	Name() string
	Load() ([]Module, []error)
}

// Registry discovers modules from its sources in order. It keeps no state between
// calls so every scan gets a fresh module set.
type Registry struct {
	sources []Source
	logger  *zap.SugaredLogger
}

// NewRegistry creates a registry over the given sources.
func NewRegistry(logger *zap.SugaredLogger, sources ...Source) *Registry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Registry{sources: sources, logger: logger}
}

// Discover returns every module that loaded, in source order, together with one
// error per module that did not. Modules sharing a name are all kept.
func (r *Registry) Discover() ([]Module, []error) {
	var (
		modules []Module
		errs    []error
	)
	for _, src := range r.sources {
		loaded, loadErrs := r.load(src)
		modules = append(modules, loaded...)
		for _, err := range loadErrs {
			r.logger.Warnw("module failed to load", "source", src.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return modules, errs
}

// Active returns the discovered modules that are enabled.
func (r *Registry) Active() ([]Module, []error) {
	modules, errs := r.Discover()
	return Enabled(modules), errs
}

func (r *Registry) load(src Source) (modules []Module, errs []error) {
	defer func() {
		if rec := recover(); rec != nil {
			modules = nil
			errs = []error{&sharedErrors.ModuleLoadError{Source: src.Name(), Err: fmt.Errorf("panic: %v", rec)}}
		}
	}()
	return src.Load()
}

// Enabled filters modules down to the enabled ones, keeping order.
func Enabled(modules []Module) []Module {
	active := make([]Module, 0, len(modules))
	for _, m := range modules {
		if m.Enabled() {
			active = append(active, m)
		}
	}
	return active
}

type staticSource struct {
	name    string
	modules []Module
}

// Static wraps an already built module list as a Source.
func Static(name string, modules ...Module) Source {
	return &staticSource{name: name, modules: modules}
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Load() ([]Module, []error) {
	return append([]Module(nil), s.modules...), nil
}
