package assembly

import (
	"debug/pe"
	"fmt"
	"regexp"

	"github.com/tbckr/commit-resolver/internal/apperr"
)

// InformationalVersionAttribute is the type name of the attribute whose first
// constructor argument carries the informational version string.
const InformationalVersionAttribute = "AssemblyInformationalVersionAttribute"

var commitPattern = regexp.MustCompile(`[0-9a-f]{40}`)

// Attribute is an assembly-level custom attribute.
type Attribute struct {
	Namespace string
	TypeName  string
	// Value is the raw CustomAttrib blob (prolog, fixed and named arguments).
	Value []byte
}

// FirstStringArg decodes the first fixed constructor argument as a string.
// It only supports attributes whose first parameter is a System.String.
func (a Attribute) FirstStringArg() (string, error) {
	s, err := decodeFirstSerString(a.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %s argument: %w", apperr.ErrMalformedMetadata, a.TypeName, err)
	}
	return s, nil
}

// Module is the decoded metadata of one binary module.
type Module struct {
	Attributes []Attribute
}

// Open reads the metadata of the PE image at path.
func Open(path string) (*Module, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a PE image: %w", apperr.ErrMalformedMetadata, path, err)
	}
	defer func() { _ = f.Close() }()

	md, err := metadataRoot(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperr.ErrMalformedMetadata, path, err)
	}
	attrs, err := md.assemblyAttributes()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperr.ErrMalformedMetadata, path, err)
	}
	return &Module{Attributes: attrs}, nil
}

// Attribute returns the first assembly attribute with the given type name.
func (m *Module) Attribute(typeName string) (Attribute, bool) {
	for _, a := range m.Attributes {
		if a.TypeName == typeName {
			return a, true
		}
	}
	return Attribute{}, false
}

// InformationalVersion returns the informational version string of the module.
func (m *Module) InformationalVersion() (string, error) {
	a, ok := m.Attribute(InformationalVersionAttribute)
	if !ok {
		return "", apperr.ErrAttributeNotFound
	}
	return a.FirstStringArg()
}

// FindCommit returns the first 40-character lowercase hex sequence in s, or "".
func FindCommit(s string) string {
	return commitPattern.FindString(s)
}

// ReadCommit opens the module at path and extracts the commit hash from its
// informational version. A version string without a hash yields "" and no error;
// a module without the attribute is an error wrapping apperr.ErrAttributeNotFound.
func ReadCommit(path string) (string, error) {
	m, err := Open(path)
	if err != nil {
		return "", err
	}
	v, err := m.InformationalVersion()
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return FindCommit(v), nil
}
