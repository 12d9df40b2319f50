package loader

import (
	"errors"
	"io/fs"
)

// Source identifies where a form definition originated so Load can operate
// on files, fs.FS entries, or in-memory payloads without leaking the
// implementation detail to callers.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile  SourceKind = "file"
	SourceKindFS    SourceKind = "fs"
	SourceKindBytes SourceKind = "bytes"
)

type fileSource struct {
	path string
}

// SourceFromFile points at a form definition on disk.
func SourceFromFile(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Kind() SourceKind { return SourceKindFile }
func (s fileSource) Location() string { return s.path }

type fsSource struct {
	fsys fs.FS
	path string
}

// SourceFromFS points at a form definition inside an fs.FS, typically an
// embedded bundle.
func SourceFromFS(fsys fs.FS, path string) Source {
	return fsSource{fsys: fsys, path: path}
}

func (s fsSource) Kind() SourceKind { return SourceKindFS }
func (s fsSource) Location() string { return s.path }

type bytesSource struct {
	name string
	data []byte
}

// SourceFromBytes wraps an in-memory definition. The name is used only for
// diagnostics.
func SourceFromBytes(name string, data []byte) Source {
	return bytesSource{name: name, data: append([]byte(nil), data...)}
}

func (s bytesSource) Kind() SourceKind { return SourceKindBytes }
func (s bytesSource) Location() string { return s.name }

// Document wraps a raw definition payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema loader: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("schema loader: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source { return d.source }

// Raw returns a defensive copy of the payload.
func (d Document) Raw() []byte { return append([]byte(nil), d.raw...) }

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}
