package cmd

// Options holds the shared command-line options for the repoatlas CLI.
type Options struct {
	Format       string
	Branch       string
	AsOf         string
	Listen       string
	IncludeTeams bool
	DryRun       bool
	Workers      int
	Verbosity    int
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Workers: 4,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithBranch sets the branch to snapshot instead of the default branch.
func WithBranch(branch string) Option {
	return func(o *Options) {
		o.Branch = branch
	}
}

// WithAsOf sets the as-of instant (RFC 3339) for historical snapshots.
func WithAsOf(asOf string) Option {
	return func(o *Options) {
		o.AsOf = asOf
	}
}

// WithListen sets the HTTP listen address for the serve command.
func WithListen(addr string) Option {
	return func(o *Options) {
		o.Listen = addr
	}
}

// WithIncludeTeams includes team access in built snapshots.
func WithIncludeTeams(include bool) Option {
	return func(o *Options) {
		o.IncludeTeams = include
	}
}

// WithDryRun builds snapshots without persisting them.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithWorkers sets the number of concurrent snapshot builds for scan.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}
