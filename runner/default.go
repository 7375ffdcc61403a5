package runner

// NewDefaultRegistry builds a Registry with every dialect this package
// ships wired in, keyed by the dialect strings job.Credentials.Dialect is
// expected to carry.
func NewDefaultRegistry(opts Options) *Registry {
	r := NewRegistry(opts)
	r.Register("postgres", NewPostgres)
	r.Register("mysql", NewMySQL)
	r.Register("oracle", NewOracle)
	r.Register("sqlite", NewSQLite)
	return r
}
