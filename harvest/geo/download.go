package geo

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"proxyharvest/internal/shared/logger"
)

// EnsureDatabase makes sure the GeoLite2-Country database exists at path,
// attempting a one-time download from url when it is absent. A failure
// here skips classification for the run; it never aborts extraction.
func EnsureDatabase(path, url string, timeout time.Duration) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	l := logger.WithComponent("Harvest/Geo")
	l.Warn().Str("path", path).Msg("GeoIP database missing, attempting download...")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create geoip directory: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("download geoip database: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download geoip database: status %d", resp.StatusCode)
	}

	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create geoip file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("write geoip file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close geoip file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("install geoip file: %w", err)
	}

	l.Info().Str("path", path).Msg("GeoIP database downloaded.")
	return nil
}
