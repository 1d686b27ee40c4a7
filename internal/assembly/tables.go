package assembly

import "fmt"

// Metadata table numbers (ECMA-335 II.22).
const (
	tModule                 = 0x00
	tTypeRef                = 0x01
	tTypeDef                = 0x02
	tFieldPtr               = 0x03
	tField                  = 0x04
	tMethodPtr              = 0x05
	tMethodDef              = 0x06
	tParamPtr               = 0x07
	tParam                  = 0x08
	tInterfaceImpl          = 0x09
	tMemberRef              = 0x0A
	tConstant               = 0x0B
	tCustomAttribute        = 0x0C
	tDeclSecurity           = 0x0E
	tStandAloneSig          = 0x11
	tEvent                  = 0x14
	tProperty               = 0x17
	tModuleRef              = 0x1A
	tTypeSpec               = 0x1B
	tAssembly               = 0x20
	tAssemblyRef            = 0x23
	tFile                   = 0x26
	tExportedType           = 0x27
	tManifestResource       = 0x28
	tGenericParam           = 0x2A
	tMethodSpec             = 0x2B
	tGenericParamConstraint = 0x2C
)

// Heap size flags of the #~ stream header.
const (
	heapStringsWide = 0x01
	heapGUIDWide    = 0x02
	heapBlobWide    = 0x04
	heapExtraData   = 0x40
)

// noTable marks an unused tag in a coded index.
const noTable = -1

// codedIndex describes an ECMA-335 II.24.2.6 coded index: the low bits select
// one of tables, the remaining bits are the 1-based row.
type codedIndex struct {
	bits   uint
	tables []int
}

var (
	resolutionScope     = codedIndex{2, []int{tModule, tModuleRef, tAssemblyRef, tTypeRef}}
	typeDefOrRef        = codedIndex{2, []int{tTypeDef, tTypeRef, tTypeSpec}}
	hasConstant         = codedIndex{2, []int{tField, tParam, tProperty}}
	memberRefParent     = codedIndex{3, []int{tTypeDef, tTypeRef, tModuleRef, tMethodDef, tTypeSpec}}
	customAttributeType = codedIndex{3, []int{noTable, noTable, tMethodDef, tMemberRef, noTable}}
	hasCustomAttribute  = codedIndex{5, []int{
		tMethodDef, tField, tTypeRef, tTypeDef, tParam, tInterfaceImpl, tMemberRef, tModule,
		tDeclSecurity, tProperty, tEvent, tStandAloneSig, tModuleRef, tTypeSpec, tAssembly,
		tAssemblyRef, tFile, tExportedType, tManifestResource, tGenericParam,
		tGenericParamConstraint, tMethodSpec,
	}}
)

// decode splits v into its target table (noTable for unknown tags) and row.
func (c codedIndex) decode(v uint32) (int, uint32) {
	tag := int(v & (1<<c.bits - 1))
	if tag >= len(c.tables) {
		return noTable, 0
	}
	return c.tables[tag], v >> c.bits
}

// tableStream is the decoded header of a #~ (or #-) stream. Row layouts are
// only computed up to CustomAttribute; later tables are never read.
type tableStream struct {
	data []byte
	rows [64]uint32

	stringSize int
	guidSize   int
	blobSize   int

	offset  [tCustomAttribute + 1]int
	rowSize [tCustomAttribute + 1]int
}

// parseTables decodes the table stream header (ECMA-335 II.24.2.6) and
// computes where each table up to CustomAttribute starts.
func parseTables(b []byte) (*tableStream, error) {
	r := &reader{b: b}
	r.skip(4 + 1 + 1) // reserved, major, minor
	heapSizes := r.u8()
	r.skip(1)
	valid := r.u64()
	r.skip(8) // sorted

	t := &tableStream{data: b, stringSize: 2, guidSize: 2, blobSize: 2}
	for i := range t.rows {
		if valid&(1<<uint(i)) != 0 {
			t.rows[i] = r.u32()
		}
	}
	if heapSizes&heapExtraData != 0 {
		r.skip(4)
	}
	if r.err != nil {
		return nil, fmt.Errorf("table stream header: %w", r.err)
	}
	if heapSizes&heapStringsWide != 0 {
		t.stringSize = 4
	}
	if heapSizes&heapGUIDWide != 0 {
		t.guidSize = 4
	}
	if heapSizes&heapBlobWide != 0 {
		t.blobSize = 4
	}

	t.rowSize = [...]int{
		tModule:          2 + t.stringSize + 3*t.guidSize,
		tTypeRef:         t.codedSize(resolutionScope) + 2*t.stringSize,
		tTypeDef:         4 + 2*t.stringSize + t.codedSize(typeDefOrRef) + t.tableSize(tField) + t.tableSize(tMethodDef),
		tFieldPtr:        t.tableSize(tField),
		tField:           2 + t.stringSize + t.blobSize,
		tMethodPtr:       t.tableSize(tMethodDef),
		tMethodDef:       4 + 2 + 2 + t.stringSize + t.blobSize + t.tableSize(tParam),
		tParamPtr:        t.tableSize(tParam),
		tParam:           2 + 2 + t.stringSize,
		tInterfaceImpl:   t.tableSize(tTypeDef) + t.codedSize(typeDefOrRef),
		tMemberRef:       t.codedSize(memberRefParent) + t.stringSize + t.blobSize,
		tConstant:        2 + t.codedSize(hasConstant) + t.blobSize,
		tCustomAttribute: t.codedSize(hasCustomAttribute) + t.codedSize(customAttributeType) + t.blobSize,
	}

	pos := uint64(r.off)
	for i := range t.offset {
		t.offset[i] = int(pos)
		pos += uint64(t.rows[i]) * uint64(t.rowSize[i])
	}
	if pos > uint64(len(b)) {
		return nil, fmt.Errorf("table stream: %w", errTruncated)
	}
	return t, nil
}

// tableSize is the width of a simple index into table.
func (t *tableStream) tableSize(table int) int {
	if t.rows[table] < 1<<16 {
		return 2
	}
	return 4
}

// codedSize is the width of a coded index of kind c.
func (t *tableStream) codedSize(c codedIndex) int {
	var most uint32
	for _, table := range c.tables {
		if table != noTable && t.rows[table] > most {
			most = t.rows[table]
		}
	}
	if most < 1<<(16-c.bits) {
		return 2
	}
	return 4
}

// row returns a reader positioned at the start of the 1-based row of table.
func (t *tableStream) row(table int, row uint32) (*reader, error) {
	if table < 0 || table > tCustomAttribute {
		return nil, fmt.Errorf("table %#x is not decoded", table)
	}
	if row == 0 || row > t.rows[table] {
		return nil, fmt.Errorf("row %d out of range for table %#x (%d rows)", row, table, t.rows[table])
	}
	start := t.offset[table] + int(row-1)*t.rowSize[table]
	return &reader{b: t.data[start : start+t.rowSize[table]]}, nil
}
