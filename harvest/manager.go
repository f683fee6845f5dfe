package harvest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"proxyharvest/harvest/extract"
	"proxyharvest/harvest/fetch"
	"proxyharvest/harvest/geo"
	"proxyharvest/harvest/report"
	"proxyharvest/harvest/storage"
	"proxyharvest/internal/shared/logger"
	"proxyharvest/internal/shared/types"
)

const (
	mergedPrefix   = "merged_servers"
	reportFileName = "extraction_report.log"
)

// Manager drives one harvest run to completion: channel iteration with
// extraction and store merges, then geo classification over the merged
// result, then the stats report. It is the only component allowed to
// decide that a run is over; everything below it degrades per-item errors
// into log lines and counters.
type Manager struct {
	cfg       *types.Config
	runID     string
	fetcher   fetch.Fetcher
	extractor *extract.Extractor

	protocolsDir string
	regionsDir   string
	reportsDir   string
	mergedDir    string
	channelsDir  string
}

// NewManager creates a manager using the given fetcher. Pass
// fetch.NewTelegramFetcher for production use.
func NewManager(cfg *types.Config, fetcher fetch.Fetcher) *Manager {
	root := cfg.StorageConf.RootDir
	return &Manager{
		cfg:          cfg,
		runID:        uuid.NewString(),
		fetcher:      fetcher,
		extractor:    extract.New(),
		protocolsDir: filepath.Join(root, "Protocols"),
		regionsDir:   filepath.Join(root, "Regions"),
		reportsDir:   filepath.Join(root, "Reports"),
		mergedDir:    filepath.Join(root, "Merged"),
		channelsDir:  filepath.Join(root, "Channels"),
	}
}

// RunID returns the identifier stamped on this run's log lines and report.
func (m *Manager) RunID() string {
	return m.runID
}

// Run executes one full harvest. The returned error is non-nil only for
// the fatal cases: an unreadable channel list, an unusable storage root,
// or cancellation.
func (m *Manager) Run(ctx context.Context) error {
	l := logger.WithComponent("Harvest/Manager").With().Str("run_id", m.runID).Logger()

	for _, dir := range []string{m.protocolsDir, m.regionsDir, m.reportsDir, m.mergedDir, m.channelsDir} {
		if err := storage.EnsureDir(dir); err != nil {
			return fmt.Errorf("create storage directory: %w", err)
		}
	}

	channels, err := LoadChannels(m.cfg.HarvestConf.ChannelsFile)
	if err != nil {
		return err
	}
	l.Info().Int("channels", len(channels)).Msg("Channel list loaded and normalized.")

	batchSize := m.cfg.HarvestConf.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	sleep := time.Duration(m.cfg.HarvestConf.SleepSeconds) * time.Second

	for start := 0; start < len(channels); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + batchSize
		if end > len(channels) {
			end = len(channels)
		}
		batch := channels[start:end]

		results := m.fetchBatch(ctx, batch)
		for i, res := range results {
			name := ChannelName(batch[i])
			if res.err != nil {
				l.Warn().Err(res.err).Str("channel", name).Msg("Fetch failed, channel contributes zero entries.")
				continue
			}
			found := m.extractor.Extract(*res.page)
			if found.Empty() {
				l.Debug().Str("channel", name).Msg("No configuration entries on page.")
				continue
			}
			newCount := m.mergeChannel(l, name, found)
			l.Info().Str("channel", name).Int("found", found.Len()).Int("new", newCount).Msg("Channel processed.")
		}

		l.Info().Int("processed", end).Int("total", len(channels)).Msg("Batch finished.")
		if end < len(channels) && sleep > 0 {
			if err := sleepCtx(ctx, sleep); err != nil {
				return err
			}
		}
	}

	m.classify(ctx, l)

	stats := report.Collect(m.layout(), m.runID)
	reportPath := filepath.Join(m.reportsDir, reportFileName)
	if err := report.Write(reportPath, stats); err != nil {
		l.Error().Err(err).Str("path", reportPath).Msg("Failed to write run report.")
	}

	l.Info().
		Int("total", stats.Total).
		Int("successful", stats.Successful).
		Int("failed", stats.Failed).
		Msg("Harvest complete.")
	return ctx.Err()
}

type fetchResult struct {
	page *extract.Page
	err  error
}

// fetchBatch runs the network fetches of one batch under a bounded worker
// pool. Only fetching is parallel; the merges that follow are applied
// sequentially by Run, so no two writers ever rewrite the same rotation
// group.
func (m *Manager) fetchBatch(ctx context.Context, batch []string) []fetchResult {
	workers := m.cfg.HarvestConf.FetchWorkers
	if workers <= 0 {
		workers = 1
	}

	results := make([]fetchResult, len(batch))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, url := range batch {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			page, err := m.fetcher.Fetch(ctx, url)
			results[i] = fetchResult{page: page, err: err}
		}(i, url)
	}
	wg.Wait()
	return results
}

// mergeChannel folds one page's entries into the channel, per-protocol and
// merged stores. Each group is an independent transaction: a failure in
// one is logged and the rest proceed. Returns the number of entries new to
// the channel store.
func (m *Manager) mergeChannel(l zerolog.Logger, name string, found *extract.Result) int {
	all := found.All()

	channelStore := storage.NewCappedGroupStore(
		m.channelsDir, name,
		m.cfg.StorageConf.MaxChannelServers, m.cfg.StorageConf.MaxChannelServers,
	)
	added, _, err := channelStore.Merge(all)
	if err != nil {
		l.Error().Err(err).Str("channel", name).Msg("Channel store merge failed.")
	}

	for _, proto := range extract.Protocols {
		entries := found.Protocol(proto)
		if len(entries) == 0 {
			continue
		}
		store := storage.NewGroupStore(m.protocolsDir, proto, m.cfg.StorageConf.MaxProtoServers)
		if _, _, err := store.Merge(entries); err != nil {
			l.Error().Err(err).Str("protocol", proto).Msg("Protocol store merge failed.")
		}
	}

	mergedStore := storage.NewGroupStore(m.mergedDir, mergedPrefix, m.cfg.StorageConf.MaxMergedServers)
	if _, _, err := mergedStore.Merge(all); err != nil {
		l.Error().Err(err).Msg("Merged store merge failed.")
	}

	return len(added)
}

// classify runs the geo phase over the merged store. Any failure short of
// cancellation is logged and skipped; extraction results stand regardless.
func (m *Manager) classify(ctx context.Context, l zerolog.Logger) {
	if err := ctx.Err(); err != nil {
		return
	}

	geoCfg := m.cfg.GeoConf
	downloadTimeout := time.Duration(geoCfg.DownloadTimeoutSeconds) * time.Second
	if err := geo.EnsureDatabase(geoCfg.DatabasePath, geoCfg.DownloadURL, downloadTimeout); err != nil {
		l.Warn().Err(err).Msg("GeoIP database unavailable, skipping classification.")
		return
	}

	mergedStore := storage.NewGroupStore(m.mergedDir, mergedPrefix, m.cfg.StorageConf.MaxMergedServers)
	entries, err := mergedStore.Load()
	if err != nil {
		l.Warn().Err(err).Msg("Could not load merged store, skipping classification.")
		return
	}

	classifier := geo.NewClassifier(geoCfg.DatabasePath, m.regionsDir, m.cfg.StorageConf.MaxRegionServers)
	if _, err := classifier.Classify(ctx, entries); err != nil {
		l.Warn().Err(err).Msg("Classification did not complete.")
	}
}

func (m *Manager) layout() report.Layout {
	return report.Layout{
		ProtocolsDir: m.protocolsDir,
		RegionsDir:   m.regionsDir,
		ChannelsDir:  m.channelsDir,
		MergedDir:    m.mergedDir,
		MergedPrefix: mergedPrefix,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
