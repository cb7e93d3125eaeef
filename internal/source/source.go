// Package source holds the inputs of analysis: file texts, their display
// paths and the crate graph.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileID is an opaque handle to a real file.
type FileID uint32

func (id FileID) String() string { return fmt.Sprintf("file#%d", id) }

// CrateID identifies a crate in the graph.
type CrateID uint32

func (id CrateID) String() string { return fmt.Sprintf("crate#%d", id) }

type fileEntry struct {
	path string
	text string
}

// FileSet stores file texts keyed by FileID. Paths are slash separated and
// relative to the project root when loaded with LoadDir.
type FileSet struct {
	mu     sync.RWMutex
	files  []fileEntry
	byPath map[string]FileID
}

// NewFileSet creates an empty file set.
func NewFileSet() *FileSet {
	return &FileSet{byPath: make(map[string]FileID)}
}

// Add registers a file, or replaces the text of an already known path.
func (s *FileSet) Add(path, text string) FileID {
	path = normalize(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byPath[path]; ok {
		s.files[id].text = text
		return id
	}
	id := FileID(len(s.files))
	s.files = append(s.files, fileEntry{path: path, text: text})
	s.byPath[path] = id
	return id
}

// SetText replaces the text of a file.
func (s *FileSet) SetText(id FileID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[s.check(id)].text = text
}

// Text returns the current text of a file.
func (s *FileSet) Text(id FileID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files[s.check(id)].text
}

// Path returns the display path of a file.
func (s *FileSet) Path(id FileID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files[s.check(id)].path
}

// Lookup finds a file by path.
func (s *FileSet) Lookup(path string) (FileID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPath[normalize(path)]
	return id, ok
}

// Len returns the number of files.
func (s *FileSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *FileSet) check(id FileID) FileID {
	if int(id) >= len(s.files) {
		panic(fmt.Sprintf("source: unknown %s", id))
	}
	return id
}

// ResolveModule finds the file of an out-of-line module `mod name;` declared
// in parent, nested in the inline modules named by inline (outermost
// first). A crate root or mod.rs owns its directory; any other file owns
// the directory named after its stem. Each inline module adds one directory.
func (s *FileSet) ResolveModule(parent FileID, inline []string, name string) (FileID, bool) {
	parentPath := s.Path(parent)
	dir, file := splitPath(parentPath)
	stem := strings.TrimSuffix(file, ".rs")
	if !ownsDirectory(file) {
		dir = joinPath(dir, stem)
	}
	for _, m := range inline {
		dir = joinPath(dir, m)
	}
	for _, candidate := range []string{
		joinPath(dir, name+".rs"),
		joinPath(dir, name+"/mod.rs"),
	} {
		if id, ok := s.Lookup(candidate); ok {
			return id, true
		}
	}
	return 0, false
}

func ownsDirectory(file string) bool {
	switch file {
	case "lib.rs", "main.rs", "mod.rs":
		return true
	}
	return false
}

// LoadDir adds every .rs file below root, with paths relative to root.
// Hidden directories and target/ are skipped.
func (s *FileSet) LoadDir(root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if p != root && (strings.HasPrefix(name, ".") || name == "target") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != ".rs" {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		s.Add(rel, string(data))
		n++
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return n, fmt.Errorf("failed to load sources from %s: %w", root, err)
	}
	return n, err
}

func normalize(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	return strings.TrimPrefix(p, "./")
}

func splitPath(p string) (dir, file string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// Crate is a compilation unit rooted at one file.
type Crate struct {
	Name string
	Root FileID
}

// CrateGraph lists the crates of a project.
type CrateGraph struct {
	mu     sync.RWMutex
	crates []Crate
}

// AddCrate registers a crate and returns its id.
func (g *CrateGraph) AddCrate(name string, root FileID) CrateID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.crates = append(g.crates, Crate{Name: name, Root: root})
	return CrateID(len(g.crates) - 1)
}

// Crate returns the crate with the given id.
func (g *CrateGraph) Crate(id CrateID) Crate {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if int(id) >= len(g.crates) {
		panic(fmt.Sprintf("source: unknown %s", id))
	}
	return g.crates[id]
}

// Lookup finds a crate by name.
func (g *CrateGraph) Lookup(name string) (CrateID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for i, c := range g.crates {
		if c.Name == name {
			return CrateID(i), true
		}
	}
	return 0, false
}

// Crates returns all crate ids ordered by name.
func (g *CrateGraph) Crates() []CrateID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]CrateID, len(g.crates))
	for i := range g.crates {
		ids[i] = CrateID(i)
	}
	sort.Slice(ids, func(a, b int) bool {
		return g.crates[ids[a]].Name < g.crates[ids[b]].Name
	})
	return ids
}
