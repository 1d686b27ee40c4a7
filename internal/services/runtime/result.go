package runtime

// Result holds the commits a runtime version's FX and CLR were built from.
type Result struct {
	Version string `json:"version"`
	CoreFX  string `json:"corefx,omitempty"`
	CoreCLR string `json:"coreclr,omitempty"`
}

// IsEmpty reports whether neither commit was resolved.
func (r *Result) IsEmpty() bool {
	return r.CoreFX == "" && r.CoreCLR == ""
}
