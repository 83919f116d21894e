// Package logfinder provides EverQuest log directory and file detection.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// EnvLogDir is the environment variable name for specifying log directory.
const EnvLogDir = "EQLOG_LOGDIR"

// LogFilePrefix starts every EverQuest character log name, e.g. "eqlog_Tester_povar.txt".
const LogFilePrefix = "eqlog_"

const logFileGlob = LogFilePrefix + "*.txt"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("log directory not found")
	ErrNoLogFiles     = errors.New("no log files found")
)

// IsLogFileName reports whether the base name of path follows the
// EverQuest naming convention.
func IsLogFileName(path string) bool {
	return strings.HasPrefix(filepath.Base(path), LogFilePrefix)
}

// DefaultLogDirs returns candidate EverQuest log directories in priority order.
// EverQuest is a Windows client, so candidates come from Windows environment
// variables and the list is empty elsewhere.
func DefaultLogDirs() []string {
	var dirs []string
	if public := os.Getenv("PUBLIC"); public != "" {
		dirs = append(dirs,
			filepath.Join(public, "Daybreak Game Company", "Installed Games", "EverQuest", "Logs"))
	}
	for _, env := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
		if pf := os.Getenv(env); pf != "" {
			dirs = append(dirs,
				filepath.Join(pf, "Steam", "steamapps", "common", "EverQuest", "Logs"),
				filepath.Join(pf, "EverQuest", "Logs"))
		}
	}
	return dirs
}

// FindLogDir returns the EverQuest log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. EQLOG_LOGDIR environment variable
//  3. Auto-detect from DefaultLogDirs()
//
// Returns ErrLogDirNotFound if no directory containing eqlog_*.txt files is found.
// The returned path has symlinks resolved.
func FindLogDir(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveAndValidateLogDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: specified directory is invalid or contains no log files", ErrLogDirNotFound)
	}

	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		if resolved := resolveAndValidateLogDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
	}

	for _, dir := range DefaultLogDirs() {
		if resolved := resolveAndValidateLogDir(dir); resolved != "" {
			return resolved, nil
		}
	}

	return "", ErrLogDirNotFound
}

// logCandidate holds a log file path and its cached modification time.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns the most recently written eqlog_*.txt in dir,
// which belongs to the character currently being played.
//
// Returns ErrNoLogFiles if no log files are found.
func FindLatestLogFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logFileGlob))
	if err != nil {
		return "", fmt.Errorf("globbing log files: %w", err)
	}

	// Stat once and cache, files may disappear between stat and sort
	candidates := make([]logCandidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, logCandidate{path: m, modTime: info.ModTime().UnixNano()})
	}

	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	latest := slices.MaxFunc(candidates, func(a, b logCandidate) int {
		switch {
		case a.modTime < b.modTime:
			return -1
		case a.modTime > b.modTime:
			return 1
		}
		// Newer name wins a tie so the choice is stable.
		return strings.Compare(a.path, b.path)
	})
	return latest.path, nil
}

// isValidLogDir reports whether dir exists and holds at least one log file.
func isValidLogDir(dir string) bool {
	return resolveAndValidateLogDir(dir) != ""
}

// resolveAndValidateLogDir resolves symlinks and validates the directory.
// Returns the resolved path if valid, empty string otherwise.
func resolveAndValidateLogDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return ""
	}

	matches, err := filepath.Glob(filepath.Join(resolved, logFileGlob))
	if err != nil || len(matches) == 0 {
		return ""
	}

	return resolved
}
