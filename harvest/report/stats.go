package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"proxyharvest/harvest/extract"
	"proxyharvest/harvest/storage"
)

// Stats is the authoritative run summary. Every count is recomputed from
// the persisted stores, never carried over from in-memory bookkeeping, so
// the report reflects what is actually on disk even after partial
// failures. Failed is derived: Total - Successful.
type Stats struct {
	RunID     string
	Timestamp time.Time

	Total      int
	Successful int
	Failed     int

	Protocols map[string]int
	Regions   map[string]int
	Channels  map[string]int
}

// Layout names the directories the aggregator reads back and the merged
// group prefix.
type Layout struct {
	ProtocolsDir string
	RegionsDir   string
	ChannelsDir  string
	MergedDir    string
	MergedPrefix string
}

// Collect re-reads the persisted stores and derives the full statistics.
// It is idempotent and safe to call independently of the extraction phase.
func Collect(layout Layout, runID string) *Stats {
	stats := &Stats{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Protocols: make(map[string]int, len(extract.Protocols)),
	}

	for _, proto := range extract.Protocols {
		stats.Protocols[proto] = storage.CountGroup(layout.ProtocolsDir, proto)
	}

	stats.Total = storage.CountGroup(layout.MergedDir, layout.MergedPrefix)
	stats.Regions = storage.CountByStem(layout.RegionsDir)
	stats.Channels = storage.CountByStem(layout.ChannelsDir)

	for _, count := range stats.Regions {
		stats.Successful += count
	}
	stats.Failed = stats.Total - stats.Successful
	return stats
}

// Render formats the report in its three sections, each sorted by
// descending count.
func (s *Stats) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Run %s at %s\n\n", s.RunID, s.Timestamp.Format(time.RFC3339))

	sb.WriteString("=== Country Statistics ===\n")
	fmt.Fprintf(&sb, "Total Servers: %d\n", s.Total)
	fmt.Fprintf(&sb, "Successful Geo-IP Resolutions: %d\n", s.Successful)
	fmt.Fprintf(&sb, "Failed Geo-IP Resolutions: %d\n", s.Failed)
	for _, kv := range sortedDesc(s.Regions) {
		fmt.Fprintf(&sb, "%-20s : %d\n", kv.key, kv.count)
	}

	sb.WriteString("\n=== Server Type Summary ===\n")
	for _, kv := range sortedDesc(s.Protocols) {
		fmt.Fprintf(&sb, "%-20s : %d\n", strings.ToUpper(kv.key), kv.count)
	}

	sb.WriteString("\n=== Channel Statistics ===\n")
	for _, kv := range sortedDesc(s.Channels) {
		fmt.Fprintf(&sb, "%-20s: %d\n", kv.key, kv.count)
	}

	return sb.String()
}

// Write renders the report and writes it to path.
func Write(path string, s *Stats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(s.Render()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

type keyCount struct {
	key   string
	count int
}

func sortedDesc(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}
