package testutil

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
)

// AssemblyAttribute is a string-valued custom attribute written by BuildAssembly.
type AssemblyAttribute struct {
	Namespace string
	Name      string
	Value     string
	// Null encodes the constructor argument as a null string.
	Null bool
	// Local declares the attribute type in the module itself (TypeDef and
	// MethodDef rows) instead of referencing it through TypeRef/MemberRef.
	Local bool
	// OnModule attaches the attribute to the Module row instead of the Assembly.
	OnModule bool
}

// InformationalVersion returns an AssemblyInformationalVersionAttribute carrying v.
func InformationalVersion(v string) AssemblyAttribute {
	return AssemblyAttribute{
		Namespace: "System.Reflection",
		Name:      "AssemblyInformationalVersionAttribute",
		Value:     v,
	}
}

// Metadata table numbers and coded index tags used by the builder.
const (
	tableModule          = 0x00
	tableTypeRef         = 0x01
	tableTypeDef         = 0x02
	tableFieldPtr        = 0x03
	tableField           = 0x04
	tableMethodDef       = 0x06
	tableParam           = 0x08
	tableInterfaceImpl   = 0x09
	tableMemberRef       = 0x0A
	tableConstant        = 0x0B
	tableCustomAttribute = 0x0C

	tagAssemblyRefScope  = 2
	tagTypeRefParent     = 1
	tagMethodDefCtor     = 2
	tagMemberRefCtor     = 3
	tagModuleParent      = 7
	tagFieldConstant     = 0
	tagParamConstant     = 1
	tagTypeRefInterface  = 1
	tagAssemblyParent    = 14
	hasCustomAttrTagBits = 5
)

const (
	fileAlignment    = 0x200
	sectionRVA       = 0x2000
	cliHeaderSize    = 72
	comDescriptorDir = 14
)

var le = binary.LittleEndian

// BuildAssembly returns a minimal PE32 image with CLI metadata whose custom
// attribute table holds attrs. It is not loadable, but carries every structure
// a metadata reader walks: CLI header, metadata root, #~, #Strings and #Blob.
func BuildAssembly(attrs ...AssemblyAttribute) []byte {
	return buildPE(buildMetadata(attrs, false))
}

// BuildAssemblyWithMembers is BuildAssembly plus a type that owns fields,
// a method with a parameter, default values and an implemented interface, so
// the FieldPtr, Field, Param, InterfaceImpl and Constant tables ahead of the
// custom attributes are non-empty.
func BuildAssemblyWithMembers(attrs ...AssemblyAttribute) []byte {
	return buildPE(buildMetadata(attrs, true))
}

type stringHeap struct {
	buf bytes.Buffer
	idx map[string]uint16
}

func newStringHeap() *stringHeap {
	h := &stringHeap{idx: map[string]uint16{"": 0}}
	h.buf.WriteByte(0)
	return h
}

func (h *stringHeap) add(s string) uint16 {
	if i, ok := h.idx[s]; ok {
		return i
	}
	i := uint16(h.buf.Len())
	h.buf.WriteString(s)
	h.buf.WriteByte(0)
	h.idx[s] = i
	return i
}

type blobHeap struct {
	buf bytes.Buffer
}

func newBlobHeap() *blobHeap {
	h := &blobHeap{}
	h.buf.WriteByte(0)
	return h
}

func (h *blobHeap) add(b []byte) uint16 {
	i := uint16(h.buf.Len())
	h.buf.Write(compressedUint(len(b)))
	h.buf.Write(b)
	return i
}

func compressedUint(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n < 0x4000:
		return []byte{byte(0x80 | n>>8), byte(n)}
	default:
		return []byte{byte(0xC0 | n>>24), byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

func customAttribBlob(a AssemblyAttribute) []byte {
	b := []byte{0x01, 0x00}
	if a.Null {
		b = append(b, 0xFF)
	} else {
		b = append(b, compressedUint(len(a.Value))...)
		b = append(b, a.Value...)
	}
	return append(b, 0x00, 0x00) // no named arguments
}

func put16(b *bytes.Buffer, v uint16) { _ = binary.Write(b, le, v) }
func put32(b *bytes.Buffer, v uint32) { _ = binary.Write(b, le, v) }
func put64(b *bytes.Buffer, v uint64) { _ = binary.Write(b, le, v) }

func align4(n int) int { return (n + 3) &^ 3 }

func alignUp(n, to int) int { return (n + to - 1) / to * to }

func buildMetadata(attrs []AssemblyAttribute, members bool) []byte {
	strs, blobs := newStringHeap(), newBlobHeap()
	ctorSig := blobs.add([]byte{0x20, 0x01, 0x01, 0x0E}) // instance void (string)

	var module, typeRefs, typeDefs, methodDefs, memberRefs, customAttrs bytes.Buffer
	var fieldPtrs, fields, params, interfaceImpls, constants bytes.Buffer
	var nTypeRef, nTypeDef, nMethodDef, nMemberRef, nCustomAttr uint16
	var nField, nParam, nInterfaceImpl, nConstant uint16

	put16(&module, 0)
	put16(&module, strs.add("Fixture.dll"))
	put16(&module, 0)
	put16(&module, 0)
	put16(&module, 0)

	for _, a := range attrs {
		if a.Local {
			// <Module> owns an empty method run ahead of every local type.
			put32(&typeDefs, 0)
			put16(&typeDefs, strs.add("<Module>"))
			put16(&typeDefs, 0)
			put16(&typeDefs, 0)
			put16(&typeDefs, 1)
			put16(&typeDefs, 1)
			nTypeDef++
			break
		}
	}

	if members {
		// Holder implements System.IDisposable and owns two literal fields
		// plus Lookup(string value = "none") : int32.
		nTypeRef++
		put16(&typeRefs, 1<<2|tagAssemblyRefScope)
		put16(&typeRefs, strs.add("IDisposable"))
		put16(&typeRefs, strs.add("System"))

		nTypeDef++
		put32(&typeDefs, 0x00100001)
		put16(&typeDefs, strs.add("Holder"))
		put16(&typeDefs, strs.add("Fixture"))
		put16(&typeDefs, 0)
		put16(&typeDefs, 1)
		put16(&typeDefs, nMethodDef+1)

		nInterfaceImpl++
		put16(&interfaceImpls, nTypeDef)
		put16(&interfaceImpls, nTypeRef<<2|tagTypeRefInterface)

		i4Sig := blobs.add([]byte{0x06, 0x08})
		strSig := blobs.add([]byte{0x06, 0x0E})
		for _, f := range []struct {
			name  string
			sig   uint16
			typ   byte
			value []byte
		}{
			{"Limit", i4Sig, 0x08, []byte{0x2A, 0, 0, 0}},
			{"Label", strSig, 0x0E, []byte{'o', 0, 'k', 0}},
		} {
			nField++
			put16(&fields, 0x8056) // public static literal, has default
			put16(&fields, strs.add(f.name))
			put16(&fields, f.sig)
			put16(&fieldPtrs, nField)

			nConstant++
			constants.Write([]byte{f.typ, 0})
			put16(&constants, nField<<2|tagFieldConstant)
			put16(&constants, blobs.add(f.value))
		}

		nMethodDef++
		put32(&methodDefs, 0)
		put16(&methodDefs, 0)
		put16(&methodDefs, 0x0096) // public static hidebysig
		put16(&methodDefs, strs.add("Lookup"))
		put16(&methodDefs, blobs.add([]byte{0x00, 0x01, 0x08, 0x0E}))
		put16(&methodDefs, nParam+1)

		nParam++
		put16(&params, 0x1010) // optional, has default
		put16(&params, 1)
		put16(&params, strs.add("value"))

		nConstant++
		constants.Write([]byte{0x0E, 0})
		put16(&constants, nParam<<2|tagParamConstant)
		put16(&constants, blobs.add([]byte{'n', 0, 'o', 0, 'n', 0, 'e', 0}))
	}

	for _, a := range attrs {
		var ctor uint16
		if a.Local {
			nMethodDef++
			put32(&typeDefs, 0x00100101)
			put16(&typeDefs, strs.add(a.Name))
			put16(&typeDefs, strs.add(a.Namespace))
			put16(&typeDefs, 0)
			put16(&typeDefs, nField+1)
			put16(&typeDefs, nMethodDef)
			nTypeDef++

			put32(&methodDefs, 0)
			put16(&methodDefs, 0)
			put16(&methodDefs, 0x1886)
			put16(&methodDefs, strs.add(".ctor"))
			put16(&methodDefs, ctorSig)
			put16(&methodDefs, nParam+1)
			ctor = nMethodDef<<3 | tagMethodDefCtor
		} else {
			nTypeRef++
			put16(&typeRefs, 1<<2|tagAssemblyRefScope)
			put16(&typeRefs, strs.add(a.Name))
			put16(&typeRefs, strs.add(a.Namespace))

			nMemberRef++
			put16(&memberRefs, nTypeRef<<3|tagTypeRefParent)
			put16(&memberRefs, strs.add(".ctor"))
			put16(&memberRefs, ctorSig)
			ctor = nMemberRef<<3 | tagMemberRefCtor
		}

		parent := uint16(1<<hasCustomAttrTagBits | tagAssemblyParent)
		if a.OnModule {
			parent = 1<<hasCustomAttrTagBits | tagModuleParent
		}
		put16(&customAttrs, parent)
		put16(&customAttrs, ctor)
		put16(&customAttrs, blobs.add(customAttribBlob(a)))
		nCustomAttr++
	}

	tables := []struct {
		number int
		rows   uint16
		data   []byte
	}{
		{tableModule, 1, module.Bytes()},
		{tableTypeRef, nTypeRef, typeRefs.Bytes()},
		{tableTypeDef, nTypeDef, typeDefs.Bytes()},
		{tableFieldPtr, nField, fieldPtrs.Bytes()},
		{tableField, nField, fields.Bytes()},
		{tableMethodDef, nMethodDef, methodDefs.Bytes()},
		{tableParam, nParam, params.Bytes()},
		{tableInterfaceImpl, nInterfaceImpl, interfaceImpls.Bytes()},
		{tableMemberRef, nMemberRef, memberRefs.Bytes()},
		{tableConstant, nConstant, constants.Bytes()},
		{tableCustomAttribute, nCustomAttr, customAttrs.Bytes()},
	}

	var stream bytes.Buffer
	put32(&stream, 0)
	stream.Write([]byte{2, 0, 0, 1}) // major, minor, heap sizes, reserved
	var valid uint64
	for _, tbl := range tables {
		if tbl.rows > 0 {
			valid |= 1 << tbl.number
		}
	}
	put64(&stream, valid)
	put64(&stream, 1<<tableCustomAttribute)
	for _, tbl := range tables {
		if tbl.rows > 0 {
			put32(&stream, uint32(tbl.rows))
		}
	}
	for _, tbl := range tables {
		if tbl.rows > 0 {
			stream.Write(tbl.data)
		}
	}

	return buildMetadataRoot([]metadataStream{
		{"#~", stream.Bytes()},
		{"#Strings", strs.buf.Bytes()},
		{"#Blob", blobs.buf.Bytes()},
	})
}

type metadataStream struct {
	name string
	data []byte
}

func buildMetadataRoot(streams []metadataStream) []byte {
	version := []byte("v4.0.30319")
	versionLen := align4(len(version) + 1)

	headerLen := 16 + versionLen + 4
	for _, s := range streams {
		headerLen += 8 + align4(len(s.name)+1)
	}

	var md bytes.Buffer
	put32(&md, 0x424A5342)
	put16(&md, 1)
	put16(&md, 1)
	put32(&md, 0)
	put32(&md, uint32(versionLen))
	md.Write(version)
	md.Write(make([]byte, versionLen-len(version)))
	put16(&md, 0)
	put16(&md, uint16(len(streams)))

	off := headerLen
	for _, s := range streams {
		size := align4(len(s.data))
		put32(&md, uint32(off))
		put32(&md, uint32(size))
		md.WriteString(s.name)
		md.Write(make([]byte, align4(len(s.name)+1)-len(s.name)))
		off += size
	}
	for _, s := range streams {
		md.Write(s.data)
		md.Write(make([]byte, align4(len(s.data))-len(s.data)))
	}
	return md.Bytes()
}

func buildPE(metadata []byte) []byte {
	var section bytes.Buffer
	put32(&section, cliHeaderSize)
	put16(&section, 2)
	put16(&section, 5)
	put32(&section, sectionRVA+cliHeaderSize)
	put32(&section, uint32(len(metadata)))
	put32(&section, 1) // COMIMAGE_FLAGS_ILONLY
	put32(&section, 0)
	section.Write(make([]byte, cliHeaderSize-section.Len()))
	section.Write(metadata)
	rawSize := alignUp(section.Len(), fileAlignment)

	var out bytes.Buffer
	dos := make([]byte, 0x40)
	dos[0], dos[1] = 'M', 'Z'
	le.PutUint32(dos[0x3C:], 0x40)
	out.Write(dos)
	out.WriteString("PE\x00\x00")

	_ = binary.Write(&out, le, pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_I386,
		NumberOfSections:     1,
		SizeOfOptionalHeader: uint16(binary.Size(pe.OptionalHeader32{})),
		Characteristics:      0x2102, // DLL | 32BIT_MACHINE | EXECUTABLE_IMAGE
	})

	oh := pe.OptionalHeader32{
		Magic:                 0x10b,
		SectionAlignment:      sectionRVA,
		FileAlignment:         fileAlignment,
		MajorSubsystemVersion: 4,
		SizeOfImage:           uint32(sectionRVA + alignUp(section.Len(), sectionRVA)),
		SizeOfHeaders:         fileAlignment,
		Subsystem:             3,
		NumberOfRvaAndSizes:   16,
	}
	oh.DataDirectory[comDescriptorDir] = pe.DataDirectory{VirtualAddress: sectionRVA, Size: cliHeaderSize}
	_ = binary.Write(&out, le, oh)

	sh := pe.SectionHeader32{
		VirtualSize:      uint32(section.Len()),
		VirtualAddress:   sectionRVA,
		SizeOfRawData:    uint32(rawSize),
		PointerToRawData: fileAlignment,
		Characteristics:  0x60000020, // code | execute | read
	}
	copy(sh.Name[:], ".text")
	_ = binary.Write(&out, le, sh)

	out.Write(make([]byte, fileAlignment-out.Len()))
	out.Write(section.Bytes())
	out.Write(make([]byte, rawSize-section.Len()))
	return out.Bytes()
}
