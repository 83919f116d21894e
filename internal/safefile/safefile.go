// Package safefile checks that log paths name regular files before they are read.
package safefile

import (
	"errors"
	"os"
)

// ErrNotRegularFile is returned for symlinks, FIFOs, devices, sockets and directories.
var ErrNotRegularFile = errors.New("not a regular file")

// ErrFileChanged is returned when the path was swapped for another file
// between the check and the open.
var ErrFileChanged = errors.New("file changed while opening")

// StatRegular returns the file info for path without following symlinks.
// Errors from os.Lstat are returned unwrapped so os.IsNotExist keeps working.
func StatRegular(path string) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}
	return info, nil
}

// OpenRegular opens path for reading after StatRegular accepts it, then
// verifies with os.SameFile that the descriptor refers to the checked file.
// A small window between Lstat and Open remains since Go has no portable
// O_NOFOLLOW; the SameFile check catches a swap inside that window.
//
// The caller must close the returned file.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	checked, err := StatRegular(path)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}
	if !os.SameFile(checked, info) {
		f.Close()
		return nil, nil, ErrFileChanged
	}

	return f, info, nil
}
