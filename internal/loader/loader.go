// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package loader turns a document location into bytes.
//
// A location is one of:
//   - a registered literal (in-memory document, mainly for tests and inputs),
//   - a file path or file:// URI,
//   - a directory holding an unpacked service template,
//   - a CSAR archive ("app.csar") or a member of one ("app.csar!/defs/x.yaml").
//
// Relative import locations are resolved against the importing document with
// Resolve, so imports inside an archive stay inside that archive.
package loader

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/specialistvlad/toscago/internal/fsutil"
	"github.com/zeebo/blake3"
)

// ErrUnsupported is wrapped by errors for locations no loader can serve.
var ErrUnsupported = errors.New("unsupported location")

// archiveSep separates an archive path from a member path.
const archiveSep = "!/"

// Error describes a failure to locate or load a document.
type Error struct {
	Location string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("load %q: %v", e.Location, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Loader loads one document.
type Loader interface {
	// Location is the canonical location, used for positions and as the
	// origin of relative imports.
	Location() string
	Load(ctx context.Context) ([]byte, error)
}

// Source hands out loaders. The zero value serves the file system only.
type Source struct {
	// Literals maps canonical locations to document contents. A literal
	// shadows a file of the same name.
	Literals map[string][]byte
}

// NewSource returns a Source with the given literal documents registered.
func NewSource(literals map[string]string) *Source {
	s := &Source{Literals: make(map[string][]byte, len(literals))}
	for k, v := range literals {
		s.Literals[k] = []byte(v)
	}
	return s
}

// GetLoader resolves location against origin (the importing document, empty
// for the root) and returns the loader that can serve it.
func (s *Source) GetLoader(location, origin string) (Loader, error) {
	if location == "" {
		return nil, &Error{Location: location, Err: fmt.Errorf("%w: empty location", ErrUnsupported)}
	}
	resolved := Resolve(location, origin)

	if data, ok := s.Literals[resolved]; ok {
		return literal{location: resolved, data: data}, nil
	}
	if scheme, _, ok := strings.Cut(resolved, "://"); ok && !strings.Contains(scheme, "/") {
		return nil, &Error{Location: resolved, Err: fmt.Errorf("%w: scheme %q", ErrUnsupported, scheme)}
	}
	if archive, member, ok := splitArchive(resolved); ok {
		return archiveMember{archive: archive, member: member}, nil
	}
	if isArchive(resolved) {
		entry, err := archiveEntry(resolved)
		if err != nil {
			return nil, &Error{Location: resolved, Err: err}
		}
		return archiveMember{archive: resolved, member: entry}, nil
	}
	if info, err := os.Stat(filepath.FromSlash(resolved)); err == nil && info.IsDir() {
		entry, err := fsutil.EntryDefinitions(os.DirFS(filepath.FromSlash(resolved)))
		if err != nil {
			return nil, &Error{Location: resolved, Err: err}
		}
		return file{location: path.Join(resolved, entry)}, nil
	}
	return file{location: resolved}, nil
}

// Resolve returns the canonical form of location as seen from origin.
func Resolve(location, origin string) string {
	location = strings.TrimPrefix(location, "file://")
	if strings.Contains(location, "://") {
		return location
	}
	location = filepath.ToSlash(location)
	if origin == "" || path.IsAbs(location) || filepath.IsAbs(location) {
		return path.Clean(location)
	}
	if _, _, ok := splitArchive(location); ok {
		return location
	}

	origin = filepath.ToSlash(strings.TrimPrefix(origin, "file://"))
	if archive, member, ok := splitArchive(origin); ok {
		return archive + archiveSep + path.Join(path.Dir(member), location)
	}
	return path.Join(path.Dir(origin), location)
}

// Fingerprint identifies document contents independently of location.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func splitArchive(location string) (archive, member string, ok bool) {
	archive, member, ok = strings.Cut(location, archiveSep)
	if !ok || !isArchive(archive) {
		return "", "", false
	}
	return archive, path.Clean(member), true
}

func isArchive(location string) bool {
	ext := strings.ToLower(path.Ext(location))
	return ext == ".csar" || ext == ".zip"
}

type literal struct {
	location string
	data     []byte
}

func (l literal) Location() string { return l.location }

func (l literal) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Location: l.location, Err: err}
	}
	return l.data, nil
}

type file struct {
	location string
}

func (f file) Location() string { return f.location }

func (f file) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Location: f.location, Err: err}
	}
	data, err := os.ReadFile(filepath.FromSlash(f.location))
	if err != nil {
		return nil, &Error{Location: f.location, Err: err}
	}
	return data, nil
}

type archiveMember struct {
	archive string
	member  string
}

func (a archiveMember) Location() string { return a.archive + archiveSep + a.member }

func (a archiveMember) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Location: a.Location(), Err: err}
	}
	zr, err := zip.OpenReader(filepath.FromSlash(a.archive))
	if err != nil {
		return nil, &Error{Location: a.Location(), Err: err}
	}
	defer zr.Close()

	data, err := fs.ReadFile(zr, a.member)
	if err != nil {
		return nil, &Error{Location: a.Location(), Err: err}
	}
	return data, nil
}

func archiveEntry(archive string) (string, error) {
	zr, err := zip.OpenReader(filepath.FromSlash(archive))
	if err != nil {
		return "", err
	}
	defer zr.Close()
	return fsutil.EntryDefinitions(zr)
}
