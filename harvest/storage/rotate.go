package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ShardName returns the file name of shard index (1-based) for a group.
// The primary shard is unsuffixed; later shards are numbered from 2.
func ShardName(prefix string, index int) string {
	if index <= 1 {
		return prefix + ".txt"
	}
	return fmt.Sprintf("%s%d.txt", prefix, index)
}

// Shards lists the existing shard files of a group, primary first, then
// numbered shards in increasing order. Enumeration walks consecutive
// indices and stops at the first missing file, so shard order is stable
// regardless of directory listing order.
func Shards(dir, prefix string) []string {
	var files []string
	for i := 1; ; i++ {
		path := filepath.Join(dir, ShardName(prefix, i))
		if _, err := os.Stat(path); err != nil {
			break
		}
		files = append(files, path)
	}
	return files
}

// Rotate replaces every shard of the group with a fresh split of entries
// into contiguous chunks of at most maxPerShard lines. Chunk membership is
// a pure function of entry order and maxPerShard; callers order entries
// newest-first so the primary shard always holds the latest data.
//
// Stale shards matching prefix*.txt are removed before the new ones are
// written. Each shard is written to a temp file and renamed into place, so
// a torn run can lose shards but never leaves a half-written one.
func Rotate(dir, prefix string, entries []string, maxPerShard int) error {
	if maxPerShard <= 0 {
		return fmt.Errorf("rotate %s: maxPerShard must be positive, got %d", prefix, maxPerShard)
	}

	stale, err := filepath.Glob(filepath.Join(dir, prefix+"*.txt"))
	if err != nil {
		return fmt.Errorf("rotate %s: list stale shards: %w", prefix, err)
	}
	for _, f := range stale {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("rotate %s: remove stale shard: %w", prefix, err)
		}
	}

	for index := 1; len(entries) > 0; index++ {
		chunk := entries
		if len(chunk) > maxPerShard {
			chunk = chunk[:maxPerShard]
		}
		entries = entries[len(chunk):]

		path := filepath.Join(dir, ShardName(prefix, index))
		if err := writeShard(path, chunk); err != nil {
			return fmt.Errorf("rotate %s: %w", prefix, err)
		}
	}
	return nil
}

func writeShard(path string, lines []string) error {
	tmp := path + ".tmp"
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(tmp, []byte(data), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
