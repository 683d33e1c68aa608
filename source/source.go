// Package source locates fragment source text by fragment name and
// fingerprints it.
//
// Sources come from two places: text registered in memory with AddSource,
// and files named <Fragment>.sdsl found in the lookup directories of a
// file system. In-memory sources win over files.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/gogpu/mixer/diag"
)

// Extension is the file extension of fragment sources.
const Extension = ".sdsl"

// Hash is a SHA-256 digest of source text.
type Hash [sha256.Size]byte

// HashText digests text.
func HashText(text string) Hash {
	return sha256.Sum256([]byte(text))
}

// String returns the lowercase hex form of the digest.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero digest.
func (h Hash) IsZero() bool { return h == Hash{} }

// File is a loaded fragment source.
type File struct {
	Name string
	Path string
	Text string
	Hash Hash
}

// NotFoundError reports a fragment whose source cannot be located.
type NotFoundError struct {
	Name string
	Dirs []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("source for fragment %q not found in %v", e.Name, e.Dirs)
}

// Is matches diag.ErrLookup.
func (e *NotFoundError) Is(target error) bool { return target == diag.ErrLookup }

// Manager resolves fragment names to source files. It is safe for
// concurrent use.
type Manager struct {
	fsys fs.FS
	dirs []string

	mu      sync.Mutex
	sources map[string]File
	paths   map[string]string
	hashes  map[string]Hash
}

// NewManager returns a manager reading from the lookup directories of fsys.
// A nil fsys restricts the manager to sources added with AddSource.
func NewManager(fsys fs.FS, dirs ...string) *Manager {
	if len(dirs) == 0 && fsys != nil {
		dirs = []string{"."}
	}
	return &Manager{
		fsys:    fsys,
		dirs:    dirs,
		sources: make(map[string]File),
		paths:   make(map[string]string),
		hashes:  make(map[string]Hash),
	}
}

// LookupDirs returns the directories searched for fragment files.
func (m *Manager) LookupDirs() []string {
	return append([]string(nil), m.dirs...)
}

// AddSource registers in-memory source text for a fragment, replacing any
// previous registration.
func (m *Manager) AddSource(name, text, sourcePath string) {
	if sourcePath == "" {
		sourcePath = name + Extension
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h := HashText(text)
	m.sources[name] = File{Name: name, Path: sourcePath, Text: text, Hash: h}
	m.paths[name] = sourcePath
	m.hashes[name] = h
}

// Exists reports whether a source exists for the fragment name.
func (m *Manager) Exists(name string) bool {
	_, err := m.FindPath(name)
	return err == nil
}

// FindPath returns the path of the fragment's source.
func (m *Manager) FindPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findPathLocked(name)
}

func (m *Manager) findPathLocked(name string) (string, error) {
	if p, ok := m.paths[name]; ok {
		return p, nil
	}
	if m.fsys != nil {
		for _, dir := range m.dirs {
			p := path.Join(dir, name+Extension)
			if _, err := fs.Stat(m.fsys, p); err == nil {
				m.paths[name] = p
				return p, nil
			}
		}
	}
	return "", &NotFoundError{Name: name, Dirs: m.dirs}
}

// Load returns the fragment's source text and digest. File sources are
// read once and cached until DeleteObsolete drops them.
func (m *Manager) Load(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.sources[name]; ok {
		return f, nil
	}
	p, err := m.findPathLocked(name)
	if err != nil {
		return File{}, err
	}
	data, err := fs.ReadFile(m.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			delete(m.paths, name)
			return File{}, &NotFoundError{Name: name, Dirs: m.dirs}
		}
		return File{}, fmt.Errorf("read %s: %w", p, err)
	}
	f := File{Name: name, Path: p, Text: string(data), Hash: HashText(string(data))}
	m.sources[name] = f
	m.hashes[name] = f.Hash
	return f, nil
}

// Hash returns the digest of the fragment's source, loading it if needed.
func (m *Manager) Hash(name string) (Hash, error) {
	m.mu.Lock()
	h, ok := m.hashes[name]
	m.mu.Unlock()
	if ok {
		return h, nil
	}
	f, err := m.Load(name)
	return f.Hash, err
}

// DeleteObsolete forgets cached file sources, paths and digests of the
// named fragments so the next Load rereads them. In-memory registrations
// made with AddSource are dropped too.
func (m *Manager) DeleteObsolete(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		delete(m.sources, name)
		delete(m.paths, name)
		delete(m.hashes, name)
	}
}

// NameFromPath returns the fragment name of a source file path, or false
// when the path does not have the fragment extension.
func NameFromPath(p string) (string, bool) {
	base := path.Base(p)
	if path.Ext(base) != Extension {
		return "", false
	}
	return base[:len(base)-len(Extension)], true
}
