package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/types"
)

// Archive is a zip package held in memory. Entries are inflated on first
// read and cached, so media that is never requested is never decoded.
type Archive struct {
	entries map[string]*zip.File
	names   []string

	mu    sync.Mutex
	cache map[string][]byte
}

var _ interfaces.Archive = (*Archive)(nil)

// Open reads the central directory of data
func Open(data []byte) (*Archive, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open package as zip archive",
			goerr.V("size", len(data)),
			goerr.T(types.ErrTagFormat),
		)
	}

	a := &Archive{
		entries: make(map[string]*zip.File, len(zipReader.File)),
		cache:   make(map[string][]byte),
	}
	for _, file := range zipReader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if _, dup := a.entries[file.Name]; dup {
			continue
		}
		a.entries[file.Name] = file
		a.names = append(a.names, file.Name)
	}
	sort.Strings(a.names)

	return a, nil
}

// Opener adapts Open to interfaces.ArchiveOpener
func Opener(data []byte) (interfaces.Archive, error) {
	return Open(data)
}

// EntryNames returns a copy of the entry names in lexical order
func (a *Archive) EntryNames() []string {
	names := make([]string, len(a.names))
	copy(names, a.names)
	return names
}

// Has reports whether the archive contains name
func (a *Archive) Has(name string) bool {
	_, ok := a.entries[name]
	return ok
}

// ReadText returns the content of name as a string
func (a *Archive) ReadText(name string) (string, error) {
	data, err := a.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBytes returns the content of name. The returned slice must not be modified.
func (a *Archive) ReadBytes(name string) ([]byte, error) {
	file, ok := a.entries[name]
	if !ok {
		return nil, goerr.New("entry not found in package",
			goerr.V("name", name),
			goerr.T(types.ErrTagNotFound),
		)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if data, ok := a.cache[name]; ok {
		return data, nil
	}

	rc, err := file.Open()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open entry in package",
			goerr.V("name", name),
			goerr.T(types.ErrTagFormat),
		)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to inflate entry",
			goerr.V("name", name),
			goerr.T(types.ErrTagFormat),
		)
	}

	a.cache[name] = data
	return data, nil
}

// Inflated reports whether name has already been decompressed
func (a *Archive) Inflated(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.cache[name]
	return ok
}
