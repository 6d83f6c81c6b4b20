package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// JoinConfig holds configuration for the join command.
type JoinConfig struct {
	RPCURL       string
	SnapshotPath string
	Pool         string
	Vault        string
	Block        uint64
	Sender       string
	Amounts      []string
	Slippage     string
	Out          string
	PGDSN        string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadJoin merges config file, environment variables, and flags into JoinConfig.
func LoadJoin(cfgFile string, flags *pflag.FlagSet) (JoinConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return JoinConfig{}, err
	}

	cfg := JoinConfig{
		RPCURL:       v.GetString("rpc"),
		SnapshotPath: v.GetString("snapshot"),
		Pool:         v.GetString("pool"),
		Vault:        v.GetString("vault"),
		Block:        v.GetUint64("block"),
		Sender:       v.GetString("sender"),
		Amounts:      getStringSlice(v, "amounts"),
		Slippage:     v.GetString("slippage"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

// SnapshotConfig holds configuration for the snapshot command.
type SnapshotConfig struct {
	RPCURL       string
	Pool         string
	Vault        string
	Block        uint64
	Out          string
	PGDSN        string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadSnapshot merges config file, environment variables, and flags into SnapshotConfig.
func LoadSnapshot(cfgFile string, flags *pflag.FlagSet) (SnapshotConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SnapshotConfig{}, err
	}

	cfg := SnapshotConfig{
		RPCURL:       v.GetString("rpc"),
		Pool:         v.GetString("pool"),
		Vault:        v.GetString("vault"),
		Block:        v.GetUint64("block"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

// ImpactConfig holds configuration for the impact command.
type ImpactConfig struct {
	SnapshotPath string
	Vault        string
	Amounts      []string
	MinBPTOut    string
	Exit         bool
	LogLevel     string
}

// LoadImpact merges config file, environment variables, and flags into ImpactConfig.
func LoadImpact(cfgFile string, flags *pflag.FlagSet) (ImpactConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ImpactConfig{}, err
	}

	cfg := ImpactConfig{
		SnapshotPath: v.GetString("snapshot"),
		Vault:        v.GetString("vault"),
		Amounts:      getStringSlice(v, "amounts"),
		MinBPTOut:    v.GetString("min-bpt-out"),
		Exit:         v.GetBool("exit"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("JOINER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("slippage", "0")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
