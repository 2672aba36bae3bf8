// Package rotation keeps a bounded, numbered set of log files.
//
// Files are named <name>_<seq>.<ext>. The set is seeded from a listing the
// caller supplies, the active file is always the one with the highest
// sequence number, and once MaxFiles is reached the oldest file is deleted
// before each new one is created. A Manager is not safe for concurrent use;
// the log worker is its only caller.
package rotation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("rotation: manager closed")

// Config describes the file set.
type Config struct {
	Directory string
	Name      string
	Extension string
	// MaxSize is the size in bytes a file may not grow past; zero disables
	// rotation.
	MaxSize int64
	// MaxFiles is the number of files kept, the active one included; zero
	// keeps every file.
	MaxFiles int
	// OnError receives failures that do not stop writing, such as a
	// historical file that could not be removed. May be nil.
	OnError func(error)
}

// File is one member of the set.
type File struct {
	Path string
	Seq  uint64
	Size int64
}

// Stats reports counters since New.
type Stats struct {
	Rotations  uint64
	Deletions  uint64
	ActivePath string
	ActiveSize int64
	Files      int
}

// Manager writes to the active file and rotates it.
type Manager struct {
	cfg     Config
	files   []File
	ignored []string
	active  *os.File
	closed  bool

	rotations uint64
	deletions uint64
}

// New seeds the set from existing, a listing of paths or base names. Entries
// that do not follow the naming scheme are skipped and reported by Ignored.
// No file is opened until the first Write.
func New(cfg Config, existing []string) (*Manager, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("rotation: file name must not be empty")
	}
	if cfg.MaxSize < 0 || cfg.MaxFiles < 0 {
		return nil, fmt.Errorf("rotation: negative limits (max size %d, max files %d)", cfg.MaxSize, cfg.MaxFiles)
	}

	m := &Manager{cfg: cfg}
	seen := make(map[uint64]bool)
	for _, p := range existing {
		seq, ok := m.parseSeq(filepath.Base(p))
		if !ok || seen[seq] {
			m.ignored = append(m.ignored, p)
			continue
		}
		seen[seq] = true
		m.files = append(m.files, File{Path: filepath.Join(cfg.Directory, filepath.Base(p)), Seq: seq})
	}
	sort.Slice(m.files, func(i, j int) bool { return m.files[i].Seq < m.files[j].Seq })
	return m, nil
}

// Write appends p to the active file, rotating first when p would push a
// non-empty file past MaxSize. An entry larger than MaxSize still goes into
// a fresh file whole.
func (m *Manager) Write(p []byte) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if m.active == nil {
		if err := m.openNext(); err != nil {
			return 0, err
		}
	} else if cur := &m.files[len(m.files)-1]; m.cfg.MaxSize > 0 && cur.Size > 0 && cur.Size+int64(len(p)) > m.cfg.MaxSize {
		if err := m.rotate(); err != nil {
			return 0, err
		}
	}

	cur := &m.files[len(m.files)-1]
	n, err := m.active.Write(p)
	cur.Size += int64(n)
	if err != nil {
		return n, fmt.Errorf("rotation: write '%s': %w", cur.Path, err)
	}
	return n, nil
}

// Sync flushes the active file to stable storage.
func (m *Manager) Sync() error {
	if m.active == nil {
		return nil
	}
	if err := m.active.Sync(); err != nil {
		return fmt.Errorf("rotation: sync '%s': %w", m.active.Name(), err)
	}
	return nil
}

// Close closes the active file. Further writes fail with ErrClosed.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.active == nil {
		return nil
	}
	err := m.active.Close()
	m.active = nil
	if err != nil {
		return fmt.Errorf("rotation: close: %w", err)
	}
	return nil
}

// Files returns the current set, oldest first.
func (m *Manager) Files() []File {
	out := make([]File, len(m.files))
	copy(out, m.files)
	return out
}

// Ignored returns the seed entries that were not part of the set.
func (m *Manager) Ignored() []string {
	return m.ignored
}

// Stats returns rotation counters and the active file.
func (m *Manager) Stats() Stats {
	s := Stats{Rotations: m.rotations, Deletions: m.deletions, Files: len(m.files)}
	if m.active != nil {
		cur := m.files[len(m.files)-1]
		s.ActivePath, s.ActiveSize = cur.Path, cur.Size
	}
	return s
}

func (m *Manager) rotate() error {
	if err := m.active.Close(); err != nil {
		m.report(fmt.Errorf("rotation: close '%s' before rotating: %w", m.active.Name(), err))
	}
	m.active = nil
	if err := m.openNext(); err != nil {
		return err
	}
	m.rotations++
	return nil
}

// openNext creates the file after the newest, then trims the set to MaxFiles.
func (m *Manager) openNext() error {
	if err := os.MkdirAll(m.dir(), 0755); err != nil {
		return fmt.Errorf("rotation: create directory '%s': %w", m.dir(), err)
	}

	var seq uint64 = 1
	if len(m.files) > 0 {
		seq = m.files[len(m.files)-1].Seq + 1
	}

	path := filepath.Join(m.dir(), m.fileName(seq))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("rotation: create '%s': %w", path, err)
	}

	// Trim only once the replacement exists
	for m.cfg.MaxFiles > 0 && len(m.files) >= m.cfg.MaxFiles {
		oldest := m.files[0]
		m.files = m.files[1:]
		if err := os.Remove(oldest.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.report(fmt.Errorf("rotation: remove '%s': %w", oldest.Path, err))
			continue
		}
		m.deletions++
	}

	m.active = f
	m.files = append(m.files, File{Path: path, Seq: seq})
	return nil
}

func (m *Manager) dir() string {
	if m.cfg.Directory == "" {
		return "."
	}
	return m.cfg.Directory
}

func (m *Manager) fileName(seq uint64) string {
	if m.cfg.Extension == "" {
		return fmt.Sprintf("%s_%d", m.cfg.Name, seq)
	}
	return fmt.Sprintf("%s_%d.%s", m.cfg.Name, seq, m.cfg.Extension)
}

func (m *Manager) parseSeq(base string) (uint64, bool) {
	return parseSeq(base, m.cfg.Name, m.cfg.Extension)
}

func parseSeq(base, name, ext string) (uint64, bool) {
	rest, ok := strings.CutPrefix(base, name+"_")
	if !ok {
		return 0, false
	}
	if ext != "" {
		if rest, ok = strings.CutSuffix(rest, "."+ext); !ok {
			return 0, false
		}
	}
	if rest == "" || rest[0] == '+' || rest[0] == '-' {
		return 0, false
	}
	seq, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

func (m *Manager) report(err error) {
	if m.cfg.OnError != nil {
		m.cfg.OnError(err)
	}
}
