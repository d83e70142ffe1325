/*
   Copyright @ 2021 bocloud <fushaosong@beyondcent.com>.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package configuration

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/selfstorage/poolkeeper"
	"github.com/selfstorage/poolkeeper/utils"
	"github.com/selfstorage/poolkeeper/utils/log"
)

const (
	envPrefix           = "POOLKEEPER"
	minPollInterval     = time.Second
	DefaultPollInterval = 10 * time.Second
	DefaultCmdTimeout   = 5 * time.Minute
)

var (
	GlobalConfig       *viper.Viper
	configModifyNotice []chan<- struct{}
	current            Config
	mu                 sync.RWMutex
)

var opt = viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
))

// Config 配置项，pollInterval 支持热更新，其余修改需重启生效
type Config struct {
	PoolName        string        `mapstructure:"poolName"`
	RecordPath      string        `mapstructure:"recordPath"`
	PollInterval    time.Duration `mapstructure:"pollInterval"`
	CommandTimeout  time.Duration `mapstructure:"commandTimeout"`
	ShareService    string        `mapstructure:"shareService"`
	InventorySource string        `mapstructure:"inventorySource"`
	Partitioner     string        `mapstructure:"partitioner"`
	HttpAddr        string        `mapstructure:"httpAddr"`
	LogPath         string        `mapstructure:"logPath"`
	Debug           bool          `mapstructure:"debug"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"pool-name":     "poolName",
	"record-path":   "recordPath",
	"poll-interval": "pollInterval",
	"http-addr":     "httpAddr",
	"log-path":      "logPath",
	"debug":         "debug",
}

// Init loads the configuration from defaults, the config file, POOLKEEPER_*
// environment variables and the flags in fs, in increasing precedence.
// A missing file is fine unless it was asked for explicitly.
func Init(cfgFile string, fs *pflag.FlagSet) error {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}
	}

	explicit := cfgFile != ""
	if !explicit {
		cfgFile = poolkeeper.DefaultConfigPath
	}
	haveFile := false
	if utils.FileExists(cfgFile) {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read the configuration %s: %w", cfgFile, err)
		}
		haveFile = true
	} else if explicit {
		return fmt.Errorf("configuration file %s does not exist", cfgFile)
	}

	c, err := decode(v)
	if err != nil {
		return err
	}

	mu.Lock()
	GlobalConfig = v
	current = c
	configModifyNotice = nil
	mu.Unlock()

	if haveFile {
		log.Infof("Loaded configuration from %s", cfgFile)
		dynamicConfig(v)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("poolName", poolkeeper.DefaultPoolName)
	v.SetDefault("recordPath", poolkeeper.DefaultRecordPath)
	v.SetDefault("pollInterval", DefaultPollInterval.String())
	v.SetDefault("commandTimeout", DefaultCmdTimeout.String())
	v.SetDefault("shareService", poolkeeper.DefaultShareService)
	v.SetDefault("inventorySource", poolkeeper.InventoryLsblk)
	v.SetDefault("partitioner", poolkeeper.PartitionerParted)
	v.SetDefault("httpAddr", poolkeeper.DefaultHttpAddr)
	v.SetDefault("logPath", poolkeeper.DefaultLogPath)
	v.SetDefault("debug", false)
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c, opt); err != nil {
		return c, fmt.Errorf("failed to unmarshal the configuration: %w", err)
	}
	if err := validate(c); err != nil {
		return c, fmt.Errorf("failed to validate the configuration: %w", err)
	}
	return c, nil
}

func dynamicConfig(v *viper.Viper) {
	v.OnConfigChange(func(event fsnotify.Event) {
		log.Infof("Detect config change: %s", event.String())
		c, err := decode(v)
		if err != nil {
			log.Errorf("%s, ignore this change", err)
			return
		}
		mu.Lock()
		current = c
		listeners := append([]chan<- struct{}(nil), configModifyNotice...)
		mu.Unlock()
		for _, ch := range listeners {
			log.Info("Generates the configuration change event")
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	})
	v.WatchConfig()
}

// RegisterListenerChan registers c to be signalled after every accepted
// configuration change. Sends never block.
func RegisterListenerChan(c chan<- struct{}) {
	mu.Lock()
	defer mu.Unlock()
	configModifyNotice = append(configModifyNotice, c)
}

// Get returns the current configuration
func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// PollInterval 设备巡检间隔, 默认10s
func PollInterval() time.Duration {
	interval := Get().PollInterval
	if interval < minPollInterval {
		return DefaultPollInterval
	}
	return interval
}

var poolNameRegexp = regexp.MustCompile("^[A-Za-z][-A-Za-z0-9_.:]*$")

func validate(c Config) error {
	if !poolNameRegexp.MatchString(c.PoolName) {
		return fmt.Errorf("pool name should start with a letter and consist of alphanumeric characters, '-', '_', '.' or ':': %q", c.PoolName)
	}
	if strings.TrimSpace(c.RecordPath) == "" {
		return errors.New("recordPath should not be empty")
	}
	if c.PollInterval < minPollInterval {
		return fmt.Errorf("pollInterval must be at least %s: %s", minPollInterval, c.PollInterval)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("commandTimeout must be positive: %s", c.CommandTimeout)
	}
	if !utils.ContainsString([]string{poolkeeper.InventoryLsblk, poolkeeper.InventoryGhw}, c.InventorySource) {
		return fmt.Errorf("inventorySource must either %s or %s: %s", poolkeeper.InventoryLsblk, poolkeeper.InventoryGhw, c.InventorySource)
	}
	if !utils.ContainsString([]string{poolkeeper.PartitionerParted, poolkeeper.PartitionerDisko}, c.Partitioner) {
		return fmt.Errorf("partitioner must either %s or %s: %s", poolkeeper.PartitionerParted, poolkeeper.PartitionerDisko, c.Partitioner)
	}
	return nil
}
