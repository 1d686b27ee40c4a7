package assembly

import (
	"errors"
	"fmt"
)

// metadataSignature is the "BSJB" magic at the start of the metadata root.
const metadataSignature = 0x424A5342

// metadata holds the streams of a metadata root that attribute lookup needs.
type metadata struct {
	tables  *tableStream
	strings []byte
	blob    []byte
}

// parseMetadata decodes the metadata root (ECMA-335 II.24.2.1) and its stream headers.
func parseMetadata(raw []byte) (*metadata, error) {
	r := &reader{b: raw}
	if sig := r.u32(); r.err == nil && sig != metadataSignature {
		return nil, fmt.Errorf("bad metadata signature %#x", sig)
	}
	r.skip(2 + 2 + 4) // major, minor, reserved
	versionLen := r.u32()
	r.skip(int(versionLen))
	r.skip(2) // flags
	count := int(r.u16())
	if r.err != nil {
		return nil, fmt.Errorf("metadata root: %w", r.err)
	}

	streams := make(map[string][]byte, count)
	for range count {
		off := r.u32()
		size := r.u32()
		name := r.cstring()
		r.align(4)
		if r.err != nil {
			return nil, fmt.Errorf("stream header: %w", r.err)
		}
		if uint64(off)+uint64(size) > uint64(len(raw)) {
			return nil, fmt.Errorf("stream %s exceeds metadata", name)
		}
		streams[name] = raw[off : off+size]
	}

	tablesData, ok := streams["#~"]
	if !ok {
		tablesData, ok = streams["#-"]
	}
	if !ok {
		return nil, errors.New("metadata has no table stream")
	}
	tables, err := parseTables(tablesData)
	if err != nil {
		return nil, err
	}
	return &metadata{
		tables:  tables,
		strings: streams["#Strings"],
		blob:    streams["#Blob"],
	}, nil
}

// stringAt returns the NUL-terminated string at off in the #Strings heap.
func (m *metadata) stringAt(off uint32) (string, error) {
	if uint64(off) >= uint64(len(m.strings)) {
		return "", fmt.Errorf("string index %#x outside heap", off)
	}
	r := &reader{b: m.strings, off: int(off)}
	s := r.cstring()
	return s, r.err
}

// blobAt returns the length-prefixed blob at off in the #Blob heap.
func (m *metadata) blobAt(off uint32) ([]byte, error) {
	if uint64(off) >= uint64(len(m.blob)) {
		return nil, fmt.Errorf("blob index %#x outside heap", off)
	}
	size, n, err := decodeCompressed(m.blob[off:])
	if err != nil {
		return nil, fmt.Errorf("blob %#x: %w", off, err)
	}
	start := uint64(off) + uint64(n)
	end := start + uint64(size)
	if end > uint64(len(m.blob)) {
		return nil, fmt.Errorf("blob %#x exceeds heap", off)
	}
	return m.blob[start:end], nil
}

// assemblyAttributes lists the custom attributes whose parent is the Assembly row.
func (m *metadata) assemblyAttributes() ([]Attribute, error) {
	t := m.tables
	parentSize := t.codedSize(hasCustomAttribute)
	typeSize := t.codedSize(customAttributeType)

	var attrs []Attribute
	for i := uint32(1); i <= t.rows[tCustomAttribute]; i++ {
		r, err := t.row(tCustomAttribute, i)
		if err != nil {
			return nil, err
		}
		parent := r.index(parentSize)
		typ := r.index(typeSize)
		value := r.index(t.blobSize)
		if r.err != nil {
			return nil, fmt.Errorf("custom attribute %d: %w", i, r.err)
		}
		if table, _ := hasCustomAttribute.decode(parent); table != tAssembly {
			continue
		}

		ns, name, err := m.attributeType(typ)
		if err != nil {
			return nil, fmt.Errorf("custom attribute %d: %w", i, err)
		}
		blob, err := m.blobAt(value)
		if err != nil {
			return nil, fmt.Errorf("custom attribute %d: %w", i, err)
		}
		attrs = append(attrs, Attribute{Namespace: ns, TypeName: name, Value: blob})
	}
	return attrs, nil
}

// attributeType resolves a CustomAttributeType coded index to the declaring type's name.
func (m *metadata) attributeType(coded uint32) (string, string, error) {
	table, row := customAttributeType.decode(coded)
	switch table {
	case tMemberRef:
		r, err := m.tables.row(tMemberRef, row)
		if err != nil {
			return "", "", err
		}
		class := r.index(m.tables.codedSize(memberRefParent))
		if r.err != nil {
			return "", "", r.err
		}
		parentTable, parentRow := memberRefParent.decode(class)
		switch parentTable {
		case tTypeRef:
			return m.typeRefName(parentRow)
		case tTypeDef:
			return m.typeDefName(parentRow)
		default:
			return "", "", fmt.Errorf("unsupported constructor parent table %#x", parentTable)
		}
	case tMethodDef:
		owner, err := m.methodOwner(row)
		if err != nil {
			return "", "", err
		}
		return m.typeDefName(owner)
	default:
		return "", "", fmt.Errorf("invalid constructor coded index %#x", coded)
	}
}

func (m *metadata) typeRefName(row uint32) (string, string, error) {
	r, err := m.tables.row(tTypeRef, row)
	if err != nil {
		return "", "", err
	}
	r.index(m.tables.codedSize(resolutionScope))
	return m.typeName(r)
}

func (m *metadata) typeDefName(row uint32) (string, string, error) {
	r, err := m.tables.row(tTypeDef, row)
	if err != nil {
		return "", "", err
	}
	r.skip(4) // flags
	return m.typeName(r)
}

// typeName reads the TypeName, TypeNamespace column pair shared by TypeRef and TypeDef.
func (m *metadata) typeName(r *reader) (string, string, error) {
	nameIdx := r.index(m.tables.stringSize)
	nsIdx := r.index(m.tables.stringSize)
	if r.err != nil {
		return "", "", r.err
	}
	name, err := m.stringAt(nameIdx)
	if err != nil {
		return "", "", err
	}
	ns, err := m.stringAt(nsIdx)
	if err != nil {
		return "", "", err
	}
	return ns, name, nil
}

// methodOwner finds the TypeDef whose method run contains the MethodDef row method.
func (m *metadata) methodOwner(method uint32) (uint32, error) {
	t := m.tables
	var owner uint32
	for i := uint32(1); i <= t.rows[tTypeDef]; i++ {
		r, err := t.row(tTypeDef, i)
		if err != nil {
			return 0, err
		}
		r.skip(4 + 2*t.stringSize + t.codedSize(typeDefOrRef) + t.tableSize(tField))
		list := r.index(t.tableSize(tMethodDef))
		if r.err != nil {
			return 0, r.err
		}
		if list > method {
			break
		}
		owner = i
	}
	if owner == 0 {
		return 0, fmt.Errorf("method %d has no declaring type", method)
	}
	return owner, nil
}
