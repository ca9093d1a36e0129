package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/twinq/internal/store"
)

// Configuration keys. Each key can also be set through the environment as
// TWINQ_<KEY>, with dots replaced by underscores (TWINQ_SOLR_URL).
const (
	KeyRegistry = "registry"
	KeyDriver   = "driver"
	KeyDSN      = "dsn"
	KeyDialect  = "dialect"
	KeySolrURL  = "solr.url"
	KeySolrCore = "solr.core"
)

// LoadConfig reads twinq.yaml from the working directory, or file when set.
// A missing default config file is not an error; a missing explicit one is.
func LoadConfig(file string) (*viper.Viper, error) {
	v := defaultConfig()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("twinq")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func defaultConfig() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TWINQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDriver, store.DriverSQLite)
	v.SetDefault(KeyDSN, ":memory:")
	v.SetDefault(KeyDialect, "sql")
	return v
}

// setting returns flag when it is set, otherwise the configured value of key.
func (o *RootOptions) setting(flag, key string) string {
	if flag != "" {
		return flag
	}
	if o.Config == nil {
		o.Config = defaultConfig()
	}
	return o.Config.GetString(key)
}
