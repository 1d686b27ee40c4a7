package aspnet

// Result holds the commit a framework package version was built from.
type Result struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
}

// IsEmpty reports whether no commit was resolved.
func (r *Result) IsEmpty() bool {
	return r.Commit == ""
}
