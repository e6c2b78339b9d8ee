package recall

// FlushMode controls how NewCache clears the store on construction.
type FlushMode int

const (
	// FlushDB clears the selected database only. This is the default.
	FlushDB FlushMode = iota

	// FlushAll clears every database on the server.
	FlushAll

	// FlushNone keeps existing state.
	FlushNone
)

// settings holds configuration applied at construction time.
type settings struct {
	observer Observer
	identity string
	flush    FlushMode
}

func newSettings(opts []Option) settings {
	s := settings{observer: NoOpObserver{}}
	for _, opt := range opts {
		opt.apply(&s)
	}
	return s
}

// Option is a functional option for the wrappers and the Cache façade.
type Option interface {
	apply(*settings)
}

type optionFunc func(*settings)

func (f optionFunc) apply(s *settings) {
	f(s)
}

// WithObserver routes call and cache events to the given observer.
// A nil observer is ignored.
func WithObserver(o Observer) Option {
	return optionFunc(func(s *settings) {
		if o != nil {
			s.observer = o
		}
	})
}

// WithIdentity overrides the operation identity used by Cache for its store method.
// The identity is the key namespace for the call counter and history lists.
func WithIdentity(name string) Option {
	return optionFunc(func(s *settings) {
		s.identity = name
	})
}

// WithoutFlush disables the flush NewCache performs on construction.
func WithoutFlush() Option {
	return optionFunc(func(s *settings) {
		s.flush = FlushNone
	})
}

// WithFlushAll makes NewCache flush every database instead of the selected one.
func WithFlushAll() Option {
	return optionFunc(func(s *settings) {
		s.flush = FlushAll
	})
}
