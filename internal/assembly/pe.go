package assembly

import (
	"debug/pe"
	"encoding/binary"
	"errors"
	"fmt"
)

// comDescriptor is the data directory index of the CLI header.
const comDescriptor = 14

// cliHeaderMinSize covers cb, the runtime version and the MetaData directory.
const cliHeaderMinSize = 16

// metadataRoot locates the CLI header of f and parses the metadata it points at.
func metadataRoot(f *pe.File) (*metadata, error) {
	var dirs []pe.DataDirectory
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		dirs = oh.DataDirectory[:min(oh.NumberOfRvaAndSizes, uint32(len(oh.DataDirectory)))]
	case *pe.OptionalHeader64:
		dirs = oh.DataDirectory[:min(oh.NumberOfRvaAndSizes, uint32(len(oh.DataDirectory)))]
	default:
		return nil, errors.New("missing optional header")
	}
	if len(dirs) <= comDescriptor || dirs[comDescriptor].VirtualAddress == 0 {
		return nil, errors.New("no CLI header (not a managed module)")
	}

	dir := dirs[comDescriptor]
	cli, err := readRVA(f, dir.VirtualAddress, max(dir.Size, cliHeaderMinSize))
	if err != nil {
		return nil, fmt.Errorf("reading CLI header: %w", err)
	}
	mdRVA := binary.LittleEndian.Uint32(cli[8:])
	mdSize := binary.LittleEndian.Uint32(cli[12:])
	if mdRVA == 0 || mdSize == 0 {
		return nil, errors.New("CLI header has no metadata directory")
	}

	raw, err := readRVA(f, mdRVA, mdSize)
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	return parseMetadata(raw)
}

// readRVA returns size bytes of raw section data starting at the relative virtual address rva.
func readRVA(f *pe.File, rva, size uint32) ([]byte, error) {
	for _, s := range f.Sections {
		extent := max(s.VirtualSize, s.Size)
		if rva < s.VirtualAddress || rva-s.VirtualAddress >= extent {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("reading section %s: %w", s.Name, err)
		}
		off := uint64(rva - s.VirtualAddress)
		if off+uint64(size) > uint64(len(data)) {
			return nil, fmt.Errorf("rva %#x+%d exceeds section %s", rva, size, s.Name)
		}
		return data[off : off+uint64(size)], nil
	}
	return nil, fmt.Errorf("rva %#x is not mapped by any section", rva)
}
