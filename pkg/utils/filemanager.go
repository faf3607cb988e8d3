// =============================================================================
// Grab Sheet Builder - File Manager Utility
// =============================================================================
//
// This package provides the file handling shared by the job and the writers:
//   - Directory management
//   - Atomic replacement of output files
//   - Temporary file naming and clean-up of stale temporaries
//   - Small file inspection helpers
//
// ATOMIC WRITE STRATEGY:
//   - Content is written to a uniquely named temporary file in the target's
//     own directory (same filesystem, so rename is atomic)
//   - The temporary file is synced and closed, then renamed over the target
//   - On any failure the temporary file is removed and the target is left
//     exactly as it was
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempPrefix starts the name of every temporary file created by AtomicWrite.
const TempPrefix = ".grabsheet-"

// TempSuffix ends the name of every temporary file created by AtomicWrite.
const TempSuffix = ".tmp"

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates a directory (and its parents) if it does not exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	return EnsureDir(filepath.Dir(path))
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// TempName returns a unique temporary file name next to target.
//
// Example: out/grab.xlsx -> out/.grabsheet-grab.xlsx-<uuid>.tmp
func TempName(target string) string {
	dir := filepath.Dir(target)
	base := filepath.Base(target)
	return filepath.Join(dir, TempPrefix+base+"-"+uuid.New().String()+TempSuffix)
}

// AtomicWrite replaces target with the bytes produced by write.
//
// PARAMETERS:
//   - target: The final file path. Its directory must exist.
//   - write: Produces the complete file content.
//
// RETURNS:
//   - An error if writing, syncing or renaming fails. The target is then
//     unchanged and no temporary file is left behind.
func AtomicWrite(target string, write func(w io.Writer) error) (err error) {
	tmpPath := TempName(target)

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = write(tmp); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", target, err)
	}

	return nil
}

// CleanStaleTemps removes temporary files for target that are older than
// maxAge. They are left behind only when a process dies mid-write.
//
// RETURNS:
//   - The number of files removed.
//   - An error if the directory cannot be read.
func CleanStaleTemps(target string, maxAge time.Duration) (int, error) {
	dir := filepath.Dir(target)
	prefix := TempPrefix + filepath.Base(target) + "-"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, TempSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err == nil {
			removed++
		}
	}

	return removed, nil
}

// =============================================================================
// FILE INSPECTION
// =============================================================================

// FileExists checks if a regular file exists at path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GetFileModTime returns the modification time of a file.
func GetFileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// SameDay reports whether a and b fall on the same calendar day in a's
// location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
