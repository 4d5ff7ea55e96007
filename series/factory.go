package series

// Factory creates series for the assembler. Options given to NewFactory apply to
// every series; options registered with For apply only to one identifier and are
// applied after the shared ones.
type Factory struct {
	shared []Option
	perID  map[string][]Option
}

// NewFactory creates a factory applying opts to every series it creates.
func NewFactory(opts ...Option) *Factory {
	return &Factory{
		shared: opts,
		perID:  make(map[string][]Option),
	}
}

// For registers options for the series identified by id and returns the factory.
func (f *Factory) For(id string, opts ...Option) *Factory {
	f.perID[id] = append(f.perID[id], opts...)
	return f
}

// NewSeries creates an empty series identified by id.
func (f *Factory) NewSeries(id string) (*Series, error) {
	opts := make([]Option, 0, len(f.shared)+len(f.perID[id]))
	opts = append(opts, f.shared...)
	opts = append(opts, f.perID[id]...)

	return New(id, opts...)
}
