package storage

import (
	"os"
	"path/filepath"
	"strings"
)

// CountFile reports the number of non-empty lines in one file. An
// unreadable or missing file counts as zero: the stats phase must never
// fail on a file it cannot read.
func CountFile(path string) int {
	lines, err := readLines(path)
	if err != nil {
		return 0
	}
	return len(lines)
}

// CountGroup reports the number of non-empty lines across every shard of
// the group.
func CountGroup(dir, prefix string) int {
	total := 0
	for _, path := range Shards(dir, prefix) {
		total += CountFile(path)
	}
	return total
}

// CountByStem counts the non-empty lines of every .txt file directly in
// dir, keyed by the file name without extension. Used for the per-region
// and per-channel sections of the run report.
func CountByStem(dir string) map[string]int {
	counts := make(map[string]int)
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return counts
	}
	for _, f := range files {
		stem := strings.TrimSuffix(filepath.Base(f), ".txt")
		counts[stem] += CountFile(f)
	}
	return counts
}

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
