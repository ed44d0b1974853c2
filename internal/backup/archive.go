package backup

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ArchiveDir is the directory under the data root holding saved backups.
const ArchiveDir = "backups"

var (
	// ErrBackupNotFound is returned for an unknown archived backup id.
	ErrBackupNotFound = errors.New("backup not found")
	// ErrChecksumMismatch is returned when an archived file no longer matches
	// the checksum recorded when it was saved.
	ErrChecksumMismatch = errors.New("backup checksum mismatch")
)

var validBackupID = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Archive keeps exported backups as files. Each backup is written to a temp
// file, then renamed, with its SHA256 stored alongside.
type Archive struct {
	root string
}

// ArchiveEntry describes one saved backup.
type ArchiveEntry struct {
	ID      string
	Path    string
	Size    int64
	SavedAt time.Time
}

// NewArchive creates an archive rooted at dir.
func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Archive{root: dir}, nil
}

// Save writes snap to the archive and returns the file path.
func (a *Archive) Save(snap *Snapshot) (string, error) {
	if !validBackupID.MatchString(snap.BackupID) {
		return "", fmt.Errorf("invalid backup id: %q", snap.BackupID)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, snap); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf.Bytes())

	tmp, err := os.CreateTemp(a.root, ".backup-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, &buf); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := a.path(snap.BackupID)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename backup: %w", err)
	}
	if err := os.WriteFile(a.sumPath(snap.BackupID), []byte(hex.EncodeToString(sum[:])), 0644); err != nil {
		return "", fmt.Errorf("write checksum: %w", err)
	}
	return path, nil
}

// Read returns the contents of an archived backup after verifying its
// checksum. Backups saved without a checksum are returned unverified.
func (a *Archive) Read(id string) ([]byte, error) {
	if !validBackupID.MatchString(id) {
		return nil, ErrBackupNotFound
	}
	data, err := os.ReadFile(a.path(id))
	if os.IsNotExist(err) {
		return nil, ErrBackupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", id, err)
	}

	want, err := os.ReadFile(a.sumPath(id))
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checksum %s: %w", id, err)
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != strings.TrimSpace(string(want)) {
		return nil, fmt.Errorf("%s: %w", id, ErrChecksumMismatch)
	}
	return data, nil
}

// List returns the archived backups, newest first.
func (a *Archive) List() ([]ArchiveEntry, error) {
	dirents, err := os.ReadDir(a.root)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	var entries []ArchiveEntry
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, ArchiveEntry{
			ID:      strings.TrimSuffix(name, ".json"),
			Path:    filepath.Join(a.root, name),
			Size:    info.Size(),
			SavedAt: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SavedAt.Equal(entries[j].SavedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].SavedAt.After(entries[j].SavedAt)
	})
	return entries, nil
}

// Delete removes a backup and its checksum. Unknown ids are ignored.
func (a *Archive) Delete(id string) error {
	if !validBackupID.MatchString(id) {
		return nil
	}
	for _, p := range []string{a.path(id), a.sumPath(id)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func (a *Archive) path(id string) string {
	return filepath.Join(a.root, id+".json")
}

func (a *Archive) sumPath(id string) string {
	return filepath.Join(a.root, id+".sha256")
}
