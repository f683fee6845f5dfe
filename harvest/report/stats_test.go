package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxyharvest/harvest/storage"
)

func testLayout(t *testing.T) Layout {
	t.Helper()
	root := t.TempDir()
	layout := Layout{
		ProtocolsDir: filepath.Join(root, "Protocols"),
		RegionsDir:   filepath.Join(root, "Regions"),
		ChannelsDir:  filepath.Join(root, "Channels"),
		MergedDir:    filepath.Join(root, "Merged"),
		MergedPrefix: "merged_servers",
	}
	for _, dir := range []string{layout.ProtocolsDir, layout.RegionsDir, layout.ChannelsDir, layout.MergedDir} {
		require.NoError(t, storage.EnsureDir(dir))
	}
	return layout
}

func TestCollectDerivesEverythingFromFiles(t *testing.T) {
	layout := testLayout(t)

	require.NoError(t, storage.Rotate(layout.ProtocolsDir, "vmess", []string{"vmess://a", "vmess://b"}, 100))
	require.NoError(t, storage.Rotate(layout.ProtocolsDir, "ss", []string{"ss://c"}, 100))
	require.NoError(t, storage.Rotate(layout.MergedDir, "merged_servers",
		[]string{"vmess://a", "vmess://b", "ss://c"}, 100))
	require.NoError(t, storage.Rotate(layout.RegionsDir, "Testland", []string{"vmess://a", "ss://c"}, 100))
	require.NoError(t, storage.Rotate(layout.ChannelsDir, "chanA", []string{"vmess://a"}, 100))

	stats := Collect(layout, "run-1")

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, stats.Total-stats.Successful, stats.Failed)
	assert.Equal(t, 2, stats.Protocols["vmess"])
	assert.Equal(t, 1, stats.Protocols["ss"])
	assert.Equal(t, 0, stats.Protocols["trojan"])
	assert.Equal(t, map[string]int{"Testland": 2}, stats.Regions)
	assert.Equal(t, map[string]int{"chanA": 1}, stats.Channels)
}

func TestCollectOnEmptyStores(t *testing.T) {
	layout := testLayout(t)

	stats := Collect(layout, "run-2")

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Successful)
	assert.Zero(t, stats.Failed)
}

func TestRenderSectionsSortedDescending(t *testing.T) {
	stats := &Stats{
		RunID:      "run-3",
		Total:      10,
		Successful: 7,
		Failed:     3,
		Protocols:  map[string]int{"vmess": 1, "ss": 5, "trojan": 3},
		Regions:    map[string]int{"Aland": 2, "Bland": 5},
		Channels:   map[string]int{"chanA": 4, "chanB": 6},
	}

	out := stats.Render()

	assert.Contains(t, out, "=== Country Statistics ===")
	assert.Contains(t, out, "Total Servers: 10")
	assert.Contains(t, out, "Successful Geo-IP Resolutions: 7")
	assert.Contains(t, out, "Failed Geo-IP Resolutions: 3")
	assert.Less(t, strings.Index(out, "Bland"), strings.Index(out, "Aland"))
	assert.Less(t, strings.Index(out, "SS"), strings.Index(out, "TROJAN"))
	assert.Less(t, strings.Index(out, "TROJAN"), strings.Index(out, "VMESS"))
	assert.Less(t, strings.Index(out, "chanB"), strings.Index(out, "chanA"))
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Reports", "extraction_report.log")

	stats := &Stats{RunID: "run-4", Protocols: map[string]int{}, Regions: map[string]int{}, Channels: map[string]int{}}
	require.NoError(t, Write(path, stats))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run-4")
}
