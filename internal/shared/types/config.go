package types

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// HarvestConf controls channel iteration and fetch pacing.
type HarvestConf struct {
	ChannelsFile        string `ini:"channels_file"`
	BatchSize           int    `ini:"batch_size"`
	SleepSeconds        int    `ini:"sleep_seconds"`
	FetchTimeoutSeconds int    `ini:"fetch_timeout_seconds"`
	FetchWorkers        int    `ini:"fetch_workers"`
}

// StorageConf holds the root directories and the per-group shard limits.
type StorageConf struct {
	RootDir           string `ini:"root_dir"`
	MaxChannelServers int    `ini:"max_channel_servers"`
	MaxProtoServers   int    `ini:"max_protocol_servers"`
	MaxRegionServers  int    `ini:"max_region_servers"`
	MaxMergedServers  int    `ini:"max_merged_servers"`
}

// GeoConf points at the GeoLite2-Country database and its fallback source.
type GeoConf struct {
	DatabasePath           string `ini:"database_path"`
	DownloadURL            string `ini:"download_url"`
	DownloadTimeoutSeconds int    `ini:"download_timeout_seconds"`
}

// Config is the unified behaviour configuration for the harvester.
type Config struct {
	LogConf     `ini:"log"`
	HarvestConf `ini:"harvest"`
	StorageConf `ini:"storage"`
	GeoConf     `ini:"geoip"`
}

// DefaultConfig returns a Config carrying the stock limits. Values present
// in the ini file override these.
func DefaultConfig() *Config {
	return &Config{
		LogConf: LogConf{
			Level: "info",
		},
		HarvestConf: HarvestConf{
			ChannelsFile:        "files/telegram_sources.txt",
			BatchSize:           10,
			SleepSeconds:        1,
			FetchTimeoutSeconds: 10,
			FetchWorkers:        4,
		},
		StorageConf: StorageConf{
			RootDir:           "Servers",
			MaxChannelServers: 100,
			MaxProtoServers:   1000,
			MaxRegionServers:  1000,
			MaxMergedServers:  1000,
		},
		GeoConf: GeoConf{
			DatabasePath:           "files/db/GeoLite2-Country.mmdb",
			DownloadURL:            "https://git.io/GeoLite2-Country.mmdb",
			DownloadTimeoutSeconds: 30,
		},
	}
}
