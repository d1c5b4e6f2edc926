// Package archive tracks already-handled songs at three scopes: the final
// file on disk, a hidden per-directory store, and a global all-time store.
// Both stores are append-only tab-separated text files indexed by song ID;
// duplicate lines may legally accumulate when skip policies are disabled.
package archive

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const directoryStoreName = ".song_ids"

// Entry is one append-only archive record.
type Entry struct {
	SongID     string
	Timestamp  time.Time
	AuthorName string
	Title      string
	Filename   string
}

func (e Entry) line() string {
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n",
		e.SongID,
		e.Timestamp.Format("2006-01-02 15:04:05"),
		e.AuthorName,
		e.Title,
		e.Filename,
	)
}

// Signals are the three independent skip inputs computed per item.
type Signals struct {
	// Name: the final path exists with non-zero size.
	Name bool
	// Local: the song ID is known to the directory-local store. With
	// directory archives disabled this degrades to a safety net that is true
	// only when both skip switches are off, preventing silent overwrites.
	Local bool
	// AllTime: the song ID is known to the global store.
	AllTime bool
}

// Decision is the dedup outcome for one item.
type Decision int

const (
	Proceed Decision = iota
	SkipExists
	SkipDownloadedOnce
)

type Manager struct {
	globalPath               string
	disableDirectoryArchives bool
	skipExisting             bool
	skipPreviouslyDownloaded bool
}

func NewManager(globalPath string, disableDirectoryArchives, skipExisting, skipPreviouslyDownloaded bool) *Manager {
	return &Manager{
		globalPath:               globalPath,
		disableDirectoryArchives: disableDirectoryArchives,
		skipExisting:             skipExisting,
		skipPreviouslyDownloaded: skipPreviouslyDownloaded,
	}
}

func loadIDs(filePath string) (map[string]struct{}, error) {
	f, err := os.Open(filePath)
	if nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("failed to open archive file %q: %v", filePath, err)
	}
	defer func() { _ = f.Close() }()

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, _, _ := strings.Cut(line, "\t")
		ids[id] = struct{}{}
	}
	if err := scanner.Err(); nil != err {
		return nil, fmt.Errorf("failed to read archive file %q: %v", filePath, err)
	}
	return ids, nil
}

// GlobalIDs loads the all-time store, indexed by song ID.
func (m *Manager) GlobalIDs() (map[string]struct{}, error) {
	return loadIDs(m.globalPath)
}

// DirectoryIDs loads the hidden per-directory store. Disabled directory
// archives always read as empty.
func (m *Manager) DirectoryIDs(dir string) (map[string]struct{}, error) {
	if m.disableDirectoryArchives {
		return map[string]struct{}{}, nil
	}
	return loadIDs(filepath.Join(dir, directoryStoreName))
}

// Signals computes the three skip inputs for one item.
func (m *Manager) Signals(finalPath, songID string) (Signals, error) {
	var s Signals

	if st, err := os.Stat(finalPath); nil == err && st.Size() > 0 {
		s.Name = true
	}

	if m.disableDirectoryArchives {
		s.Local = !m.skipExisting || !m.skipPreviouslyDownloaded
	} else {
		dirIDs, err := m.DirectoryIDs(filepath.Dir(finalPath))
		if nil != err {
			return Signals{}, err
		}
		_, s.Local = dirIDs[songID]
	}

	globalIDs, err := m.GlobalIDs()
	if nil != err {
		return Signals{}, err
	}
	_, s.AllTime = globalIDs[songID]

	return s, nil
}

// Decide applies the skip priority: directory-scope existence first, then the
// all-time store, otherwise proceed.
func (m *Manager) Decide(s Signals) Decision {
	if s.Local && s.Name && m.skipExisting && !m.disableDirectoryArchives {
		return SkipExists
	}
	if s.AllTime && m.skipPreviouslyDownloaded {
		return SkipDownloadedOnce
	}
	return Proceed
}

func appendLine(filePath, line string) error {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o0644)
	if nil != err {
		return fmt.Errorf("failed to open archive file %q for append: %v", filePath, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(line); nil != err {
		return fmt.Errorf("failed to append archive record: %v", err)
	}
	return nil
}

// EnsureDirectoryStore creates the download directory and seeds its hidden
// store file, unless directory archives are disabled.
func (m *Manager) EnsureDirectoryStore(dir string) error {
	if err := os.MkdirAll(dir, 0o0755); nil != err {
		return fmt.Errorf("failed to create download directory: %v", err)
	}
	if m.disableDirectoryArchives {
		return nil
	}

	storePath := filepath.Join(dir, directoryStoreName)
	f, err := os.OpenFile(storePath, os.O_CREATE|os.O_WRONLY, 0o0644)
	if nil != err {
		return fmt.Errorf("failed to create directory store file: %v", err)
	}
	return f.Close()
}

// Record appends the item to the stores a successful download updates: the
// global store when skip-previously-downloaded or disabled directory archives
// call for it and the ID was not yet known there, and the directory store
// whenever it did not already hold the ID.
func (m *Manager) Record(dir string, e Entry, s Signals) error {
	if (m.skipPreviouslyDownloaded || m.disableDirectoryArchives) && !s.AllTime {
		if err := os.MkdirAll(filepath.Dir(m.globalPath), 0o0755); nil != err {
			return fmt.Errorf("failed to create global archive directory: %v", err)
		}
		if err := appendLine(m.globalPath, e.line()); nil != err {
			return err
		}
	}

	if !s.Local && !m.disableDirectoryArchives {
		if err := appendLine(filepath.Join(dir, directoryStoreName), e.line()); nil != err {
			return err
		}
	}
	return nil
}
