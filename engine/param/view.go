package param

import (
	"fmt"

	"github.com/compozy/taskfactory/engine/value"
)

// View is the restricted façade handed to configuration callables. It reads
// every parameter of its read set and writes configurable parameters of its
// write set that the target also declares as configurable. Any other write
// is a no-op.
type View struct {
	target     *Object
	read       *Set
	write      *Set
	resolution []any
	parent     *View
}

// NewView builds a view over target. Values written through the view are
// resolved later with (target entity, resolution...) as context.
func NewView(target *Object, read, write *Set, resolution ...any) *View {
	return &View{target: target, read: read, write: write, resolution: resolution}
}

func (v *View) CanGet(name string) bool {
	return v.read.Has(name)
}

func (v *View) CanSet(name string) bool {
	if v.parent != nil && !v.parent.CanSet(name) {
		return false
	}
	return v.write.Configurable(name) && v.target.params.Configurable(name)
}

// Restrict returns a view over the same target and read set whose writers
// are further limited to configurable parameters of write.
func (v *View) Restrict(write *Set) *View {
	return &View{
		target:     v.target,
		read:       v.read,
		write:      write,
		resolution: v.resolution,
		parent:     v,
	}
}

func (v *View) Get(name string) (any, error) {
	if !v.CanGet(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	return v.target.Get(name)
}

// Set stores val on the target, deferred with the view's resolution context.
func (v *View) Set(name string, val any) {
	if !v.CanSet(name) {
		return
	}
	deferred := value.Resolve(val)
	for _, arg := range v.resolution {
		deferred = deferred.AppendArgument(arg)
	}
	v.target.write(name, deferred)
}

// Params returns the parameters readable through the view.
func (v *View) Params() *Set {
	return v.read
}

// Values snapshots every readable parameter.
func (v *View) Values() (map[string]any, error) {
	return v.read.ReadFrom(v)
}
