// Package storage persists rainbow tables to disk and loads them back.
// Tables are framed with a magic number, a format version and a gob
// payload; the directory loader enforces that every file in a
// directory is the same kind of table (.rt or .rtcde) and was
// generated with a compatible context before handing back a cluster.
package storage

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"

	"github.com/edsrzf/mmap-go"

	"github.com/rtlab/gorainbow/internal/ctx"
	"github.com/rtlab/gorainbow/internal/hashfn"
	"github.com/rtlab/gorainbow/internal/rterrors"
	"github.com/rtlab/gorainbow/internal/rtable"
)

// SimpleExtension and CompressedExtension are the file extensions
// that dispatch a directory load to SimpleTable or CompressedTable.
const (
	SimpleExtension     = ".rt"
	CompressedExtension = ".rtcde"
)

var magic = [4]byte{'g', 'r', 'b', 'w'}

// ErrAlreadyCompressed is returned by a compress operation asked to
// compress a directory that already holds compressed tables.
var ErrAlreadyCompressed = rterrors.ExtensionMismatch("directory already contains compressed tables")

// ErrNotCompressed is returned by a decompress operation asked to
// decompress a directory that holds simple tables.
var ErrNotCompressed = rterrors.ExtensionMismatch("directory does not contain compressed tables")

const formatVersion = 1

type frame struct {
	Magic   [4]byte
	Version uint8
	Kind    uint8
}

const (
	kindSimple uint8 = iota
	kindCompressed
)

type simplePayload struct {
	Chains []rtable.Chain
	Ctx    wireCtx
}

type compressedPayload struct {
	// Chains is the decoded chain set; the delta/Rice-coded layout is
	// rebuilt on load rather than serialized bit-for-bit, since gob
	// has no notion of sub-byte fields and reconstructing from chains
	// is cheap relative to disk I/O.
	Chains []rtable.Chain
	Ctx    wireCtx
}

// wireCtx is the gob-friendly mirror of ctx.Context: the same fields,
// with the hash function stored as its name so files stay readable
// across a hashfn.Function renumbering.
type wireCtx struct {
	Charset           []byte
	T                 uint64
	MaxPasswordLength uint8
	N                 uint64
	SearchSpaces      []uint64
	M0                uint64
	TableNumber       uint8
	HashFunction      string
}

func toWireCtx(c *ctx.Context) wireCtx {
	return wireCtx{
		Charset:           c.Charset,
		T:                 c.T,
		MaxPasswordLength: c.MaxPasswordLength,
		N:                 c.N,
		SearchSpaces:      c.SearchSpaces,
		M0:                c.M0,
		TableNumber:       c.TableNumber,
		HashFunction:      c.HashFunction.String(),
	}
}

func fromWireCtx(w wireCtx) (*ctx.Context, error) {
	fn, err := hashfn.Parse(w.HashFunction)
	if err != nil {
		return nil, rterrors.Corrupt("unknown hash function: " + w.HashFunction)
	}
	return &ctx.Context{
		Charset:           w.Charset,
		T:                 w.T,
		MaxPasswordLength: w.MaxPasswordLength,
		N:                 w.N,
		SearchSpaces:      w.SearchSpaces,
		M0:                w.M0,
		TableNumber:       w.TableNumber,
		HashFunction:      fn,
	}, nil
}

// StoreSimple writes table to path in the .rt framing.
func StoreSimple(path string, table *rtable.SimpleTable) error {
	return store(path, kindSimple, simplePayload{
		Chains: table.Chains(),
		Ctx:    toWireCtx(table.Ctx()),
	})
}

// StoreCompressed writes table to path in the .rtcde framing.
func StoreCompressed(path string, table *rtable.CompressedTable) error {
	return store(path, kindCompressed, compressedPayload{
		Chains: table.Chains(),
		Ctx:    toWireCtx(table.Ctx()),
	})
}

func store(path string, kind uint8, payload any) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return rterrors.Storage(err.Error())
	}
	defer f.Close()

	if _, err := f.Write(append(magic[:], formatVersion, kind)); err != nil {
		return rterrors.Storage(err.Error())
	}

	enc := gob.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		return rterrors.Storage(err.Error())
	}
	return nil
}

// LoadSimple reads a .rt file, given its mmap-backed contents.
func LoadSimple(data []byte) (*rtable.SimpleTable, error) {
	body, kind, err := unframe(data)
	if err != nil {
		return nil, err
	}
	if kind != kindSimple {
		return nil, rterrors.ExtensionMismatch("file is not a simple table")
	}

	var payload simplePayload
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		return nil, rterrors.Corrupt(err.Error())
	}

	c, err := fromWireCtx(payload.Ctx)
	if err != nil {
		return nil, err
	}

	return rtable.NewSimpleTableFromChains(payload.Chains, c)
}

// LoadCompressed reads a .rtcde file, given its mmap-backed contents.
func LoadCompressed(data []byte) (*rtable.CompressedTable, error) {
	body, kind, err := unframe(data)
	if err != nil {
		return nil, err
	}
	if kind != kindCompressed {
		return nil, rterrors.ExtensionMismatch("file is not a compressed table")
	}

	var payload compressedPayload
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		return nil, rterrors.Corrupt(err.Error())
	}

	c, err := fromWireCtx(payload.Ctx)
	if err != nil {
		return nil, err
	}

	simple, err := rtable.NewSimpleTableFromChains(payload.Chains, c)
	if err != nil {
		return nil, err
	}
	return rtable.NewCompressedTable(simple), nil
}

func unframe(data []byte) (body []byte, kind uint8, err error) {
	if len(data) < 6 || !bytes.Equal(data[:4], magic[:]) {
		return nil, 0, rterrors.Corrupt("missing or invalid file header")
	}
	if data[4] != formatVersion {
		return nil, 0, rterrors.Corrupt("unsupported table format version")
	}
	return data[6:], data[5], nil
}

// MappedFile is an mmap-backed read handle on one table file. Close it
// once the table built from Bytes is no longer needed.
type MappedFile struct {
	mmap mmap.MMap
}

// OpenMapped memory-maps path for reading.
func OpenMapped(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rterrors.Storage(err.Error())
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, rterrors.Storage(err.Error())
	}
	return &MappedFile{mmap: m}, nil
}

// Bytes exposes the mapped contents.
func (m *MappedFile) Bytes() []byte { return m.mmap }

// Close unmaps the file.
func (m *MappedFile) Close() error { return m.mmap.Unmap() }

// Directory is the result of scanning a table directory: every file's
// extension agreed. The files' contexts are not checked here;
// LoadCluster checks them once the files are loaded.
type Directory struct {
	Paths      []string
	Compressed bool
}

// ScanDirectory lists every .rt or .rtcde file in dir, rejecting a
// directory that mixes the two extensions or contains none at all. It
// does not open the files.
func ScanDirectory(dir string) (*Directory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, rterrors.Storage(err.Error())
	}

	var paths []string
	sawSimple, sawCompressed := false, false

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case SimpleExtension:
			sawSimple = true
		case CompressedExtension:
			sawCompressed = true
		default:
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	if len(paths) == 0 {
		return nil, rterrors.EmptyDirectory()
	}
	if sawSimple && sawCompressed {
		return nil, rterrors.MixedExtensions()
	}

	sort.Strings(paths)
	return &Directory{Paths: paths, Compressed: sawCompressed}, nil
}

// checkConsistent verifies that every context in ctxs shares the
// parameters that must match for a cluster search to be meaningful.
// Table numbers are expected to differ, and must: a cluster built from
// two copies of the same table covers no more of the search space than
// one, silently halving the advertised coverage.
func checkConsistent(ctxs []*ctx.Context) error {
	if len(ctxs) == 0 {
		return nil
	}
	first := ctxs[0]
	seen := make(map[uint8]bool, len(ctxs))
	for _, c := range ctxs {
		if c.T != first.T || c.N != first.N || c.MaxPasswordLength != first.MaxPasswordLength ||
			c.HashFunction != first.HashFunction || !bytes.Equal(c.Charset, first.Charset) {
			return rterrors.InconsistentContext("tables in directory do not share generation parameters")
		}
		if seen[c.TableNumber] {
			return rterrors.InconsistentContext("directory contains two tables with the same table number")
		}
		seen[c.TableNumber] = true
	}
	return nil
}

// LoadCluster opens every file in a scanned directory and returns the
// loaded tables and their contexts, after checking that the contexts
// are consistent. Every file stays mapped until the returned closer is
// called.
func LoadCluster(dir *Directory) (tables []rtable.Table, contexts []*ctx.Context, closeAll func() error, err error) {
	mapped := make([]*MappedFile, 0, len(dir.Paths))
	closeAll = func() error {
		var firstErr error
		for _, m := range mapped {
			if cerr := m.Close(); cerr != nil && firstErr == nil {
				firstErr = cerr
			}
		}
		return firstErr
	}

	for _, path := range dir.Paths {
		m, merr := OpenMapped(path)
		if merr != nil {
			closeAll()
			return nil, nil, nil, merr
		}
		mapped = append(mapped, m)

		if dir.Compressed {
			table, lerr := LoadCompressed(m.Bytes())
			if lerr != nil {
				closeAll()
				return nil, nil, nil, lerr
			}
			tables = append(tables, table)
			contexts = append(contexts, table.Ctx())
		} else {
			table, lerr := LoadSimple(m.Bytes())
			if lerr != nil {
				closeAll()
				return nil, nil, nil, lerr
			}
			tables = append(tables, table)
			contexts = append(contexts, table.Ctx())
		}
	}

	if cerr := checkConsistent(contexts); cerr != nil {
		closeAll()
		return nil, nil, nil, cerr
	}

	return tables, contexts, closeAll, nil
}
