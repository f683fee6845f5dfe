package config

import (
	"os"
	"strconv"

	"gopkg.in/ini.v1"

	"proxyharvest/internal/shared/types"
)

// LoadIni loads the behaviour configuration file on top of the defaults
// already present in cfg. A missing file is not an error: the defaults
// simply stand.
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err == nil {
		if err := iniFile.MapTo(cfg); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	overrideFromEnvStr(&cfg.HarvestConf.ChannelsFile, "HARVEST_CHANNELS_FILE")
	overrideFromEnvStr(&cfg.StorageConf.RootDir, "HARVEST_ROOT_DIR")
	overrideFromEnvStr(&cfg.GeoConf.DatabasePath, "HARVEST_GEOIP_DB")
	overrideFromEnvInt(&cfg.HarvestConf.FetchWorkers, "HARVEST_FETCH_WORKERS")
	return nil
}

func overrideFromEnvStr(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
