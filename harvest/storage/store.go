package storage

import (
	"bufio"
	"os"
)

// GroupStore is the canonical, file-backed set for one rotation group
// (one protocol, one channel, one region, or the merged union). All
// shards of a group live in Dir and share Prefix.
type GroupStore struct {
	Dir         string
	Prefix      string
	MaxPerShard int

	// MaxEntries bounds total retention for the group; once the merged
	// list exceeds it, the oldest entries fall off the tail. Zero means
	// unbounded.
	MaxEntries int
}

// NewGroupStore returns an unbounded store sharded at maxPerShard lines.
func NewGroupStore(dir, prefix string, maxPerShard int) *GroupStore {
	return &GroupStore{Dir: dir, Prefix: prefix, MaxPerShard: maxPerShard}
}

// NewCappedGroupStore returns a store that also evicts the oldest entries
// beyond maxEntries on every merge.
func NewCappedGroupStore(dir, prefix string, maxPerShard, maxEntries int) *GroupStore {
	return &GroupStore{Dir: dir, Prefix: prefix, MaxPerShard: maxPerShard, MaxEntries: maxEntries}
}

// Load reads every shard of the group and returns its non-empty lines in
// shard order, first occurrence wins. A group with no shards loads empty.
func (s *GroupStore) Load() ([]string, error) {
	var entries []string
	seen := make(map[string]struct{})
	for _, path := range Shards(s.Dir, s.Prefix) {
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			entries = append(entries, line)
		}
	}
	return entries, nil
}

// Merge folds newEntries into the group. Entries already present are
// dropped; if nothing remains the merge is a no-op and no file is touched,
// so re-running over unchanged source data never rewrites shards. When
// there are additions the whole group is rewritten, added entries first.
//
// It returns the entries actually added and the total number of lines
// written.
func (s *GroupStore) Merge(newEntries []string) (added []string, written int, err error) {
	existing, err := s.Load()
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[e] = struct{}{}
	}
	for _, e := range newEntries {
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		added = append(added, e)
	}

	if len(added) == 0 {
		return nil, 0, nil
	}

	entries := make([]string, 0, len(added)+len(existing))
	entries = append(entries, added...)
	entries = append(entries, existing...)
	if s.MaxEntries > 0 && len(entries) > s.MaxEntries {
		entries = entries[:s.MaxEntries]
	}

	if err := Rotate(s.Dir, s.Prefix, entries, s.MaxPerShard); err != nil {
		return nil, 0, err
	}
	return added, len(entries), nil
}

// Count reports the number of non-empty lines across all shards of the
// group. Unreadable shards count as zero.
func (s *GroupStore) Count() int {
	return CountGroup(s.Dir, s.Prefix)
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
