package harvest

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// NormalizeChannelURL rewrites a plain Telegram channel URL into its
// preview ("/s/") form so the page can be fetched without a client.
// Anything that is not a t.me URL passes through untouched.
func NormalizeChannelURL(url string) string {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "https://t.me/") {
		return url
	}
	parts := strings.Split(url, "/")
	if len(parts) >= 4 && parts[3] != "s" {
		return "https://t.me/s/" + strings.Join(parts[3:], "/")
	}
	return url
}

// ChannelName extracts the channel identifier from a URL: the last path
// segment.
func ChannelName(url string) string {
	segs := strings.Split(strings.TrimSuffix(strings.TrimSpace(url), "/"), "/")
	return segs[len(segs)-1]
}

// LoadChannels reads the channel list, normalizes, deduplicates and sorts
// it, and rewrites the file in place in that canonical form. An unreadable
// list is the one fatal error of a run.
func LoadChannels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channel list: %w", err)
	}

	seen := make(map[string]struct{})
	var channels []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		url := NormalizeChannelURL(line)
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		channels = append(channels, url)
	}
	sort.Strings(channels)

	if err := os.WriteFile(path, []byte(strings.Join(channels, "\n")+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("rewrite channel list: %w", err)
	}
	return channels, nil
}
