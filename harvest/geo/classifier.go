package geo

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"proxyharvest/harvest/storage"
	"proxyharvest/internal/shared/logger"
)

// Summary carries the outcome of one classification pass. Every entry of
// the merged store lands in exactly one of the two counters: Successful
// (bucketed under a country) or Failed (no parseable endpoint IP, or the
// database has no country for it).
type Summary struct {
	Successful int
	Failed     int
	Countries  map[string]int
}

// Classifier buckets configuration entries into per-country files under
// RegionsDir, resolving the embedded endpoint IP against a
// GeoLite2-Country database.
type Classifier struct {
	DatabasePath string
	RegionsDir   string
	MaxPerRegion int
}

// NewClassifier returns a classifier writing to regionsDir.
func NewClassifier(databasePath, regionsDir string, maxPerRegion int) *Classifier {
	return &Classifier{
		DatabasePath: databasePath,
		RegionsDir:   regionsDir,
		MaxPerRegion: maxPerRegion,
	}
}

// CountryResolver is the slice of the GeoLite2 reader the classifier
// needs. *geoip2.Reader satisfies it.
type CountryResolver interface {
	Country(ip net.IP) (*geoip2.Country, error)
}

// Classify recomputes all region buckets from scratch: prior region files
// are wiped, then every entry is resolved and bucketed. Entries are
// expected newest-first (merged-store order), so each bucket is written
// newest-first and capped at MaxPerRegion.
//
// A database that cannot be opened aborts classification; individual
// resolution failures only increment Summary.Failed. The reader is
// released on every exit path.
func (c *Classifier) Classify(ctx context.Context, entries []string) (*Summary, error) {
	reader, err := geoip2.Open(c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	defer reader.Close()

	return c.run(ctx, reader, entries)
}

func (c *Classifier) run(ctx context.Context, resolver CountryResolver, entries []string) (*Summary, error) {
	l := logger.WithComponent("Harvest/Geo")

	if err := c.wipeRegions(); err != nil {
		return nil, err
	}

	summary := &Summary{Countries: make(map[string]int)}
	buckets := make(map[string][]string)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		country, ok := c.resolve(resolver, entry)
		if !ok {
			summary.Failed++
			continue
		}
		summary.Successful++
		summary.Countries[country]++
		if len(buckets[country]) < c.MaxPerRegion {
			buckets[country] = append(buckets[country], entry)
		}
	}

	for country, bucket := range buckets {
		if err := storage.Rotate(c.RegionsDir, country, bucket, c.MaxPerRegion); err != nil {
			l.Error().Err(err).Str("region", country).Msg("Failed to write region bucket.")
		}
	}

	l.Info().
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Int("regions", len(buckets)).
		Msg("Classification finished.")
	return summary, nil
}

// resolve maps one entry to a country name. The GeoLite2 reader returns an
// empty record rather than an error for addresses it does not know, so a
// missing country name covers both the lookup miss and the "Unknown"
// record case; both count as failures and get no bucket.
func (c *Classifier) resolve(resolver CountryResolver, entry string) (string, bool) {
	host, ok := EndpointIP(entry)
	if !ok {
		return "", false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return "", false
	}
	record, err := resolver.Country(ip)
	if err != nil {
		return "", false
	}
	name := record.Country.Names["en"]
	if name == "" {
		return "", false
	}
	return name, true
}

// EndpointIP extracts the host token between the last '@' and the
// following ':' of a configuration entry. ok is false when either
// delimiter is absent or the token is empty.
func EndpointIP(entry string) (string, bool) {
	at := strings.LastIndex(entry, "@")
	if at < 0 {
		return "", false
	}
	rest := entry[at+1:]
	colon := strings.Index(rest, ":")
	if colon <= 0 {
		return "", false
	}
	return rest[:colon], true
}

// wipeRegions removes every region file so the pass is a full recompute.
func (c *Classifier) wipeRegions() error {
	files, err := filepath.Glob(filepath.Join(c.RegionsDir, "*.txt"))
	if err != nil {
		return fmt.Errorf("list region files: %w", err)
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("remove region file: %w", err)
		}
	}
	return nil
}
