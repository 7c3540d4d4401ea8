// Package loader finds the annotation entry points of an instrumented ELF
// binary, the functions an instrumentation engine hooks to observe region
// and task boundaries.
package loader

import (
	"debug/elf"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrStripped is returned for a binary without a symbol table.
var ErrStripped = errors.New("binary has no symbol table")

// EntryKind identifies an annotation entry point.
type EntryKind int

const (
	// EntrySiteBegin marks the start of an annotated region. Its arguments
	// are the region name and the call-site object.
	EntrySiteBegin EntryKind = iota
	// EntrySiteEnd marks the end of an annotated region. Its argument is the
	// call-site object.
	EntrySiteEnd
	// EntryTaskBegin and EntryTaskEnd mark task boundaries. Tasks are not
	// profiled.
	EntryTaskBegin
	EntryTaskEnd
)

// entryNames maps the worker functions of the annotation header to kinds.
var entryNames = map[string]EntryKind{
	"ANNOTATE_SITE_BEGIN_WKR": EntrySiteBegin,
	"ANNOTATE_SITE_END_WKR":   EntrySiteEnd,
	"ANNOTATE_TASK_BEGIN_WKR": EntryTaskBegin,
	"ANNOTATE_TASK_END_WKR":   EntryTaskEnd,
}

func (k EntryKind) String() string {
	switch k {
	case EntrySiteBegin:
		return "site-begin"
	case EntrySiteEnd:
		return "site-end"
	case EntryTaskBegin:
		return "task-begin"
	case EntryTaskEnd:
		return "task-end"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// Entry is one annotation function found in a binary.
type Entry struct {
	// Kind is the boundary the function marks.
	Kind EntryKind
	// Symbol is the symbol name as found in the binary.
	Symbol string
	// Addr is the virtual address of the function.
	Addr uint64
	// Size is the size of the function in bytes.
	Size uint64
}

// Image describes the annotation entry points of one binary.
type Image struct {
	// Path is the file the image was loaded from.
	Path string
	// Machine is the target architecture.
	Machine elf.Machine
	// EntryPoint is the virtual address where execution begins.
	EntryPoint uint64
	// Entries holds the annotation functions sorted by address.
	Entries []Entry
}

// Load opens an ELF binary and collects its annotation entry points.
func Load(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	syms, err := f.Symbols()
	if errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("%s: %w", path, ErrStripped)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read symbols: %w", err)
	}

	img := &Image{
		Path:       path,
		Machine:    f.Machine,
		EntryPoint: f.Entry,
	}

	for _, sym := range syms {
		kind, ok := entryNames[baseName(sym.Name)]
		if !ok {
			continue
		}

		// Only functions can be hooked.
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
			continue
		}

		img.Entries = append(img.Entries, Entry{
			Kind:   kind,
			Symbol: sym.Name,
			Addr:   sym.Value,
			Size:   sym.Size,
		})
	}

	sort.Slice(img.Entries, func(i, j int) bool {
		return img.Entries[i].Addr < img.Entries[j].Addr
	})

	return img, nil
}

// baseName strips compiler suffixes such as .constprop.0 or .lto_priv.0.
func baseName(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// Find returns the entries of one kind.
func (img *Image) Find(kind EntryKind) []Entry {
	var found []Entry
	for _, e := range img.Entries {
		if e.Kind == kind {
			found = append(found, e)
		}
	}
	return found
}

// Annotated reports whether the binary can be profiled: it must contain both
// region entry points.
func (img *Image) Annotated() bool {
	return len(img.Find(EntrySiteBegin)) > 0 && len(img.Find(EntrySiteEnd)) > 0
}
