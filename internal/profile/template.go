package profile

import (
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ROM1024/2025-BEBOP/internal/fileutil"
)

// ErrConfigExists is returned by WriteDefaultConfig when the file is already
// there and overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

// Default returns the profile written by WriteDefaultConfig.
func Default() *Profile {
	return &Profile{
		Mode:              "prod",
		Addr:              "127.0.0.1",
		Port:              8081,
		Data:              ".",
		Timezone:          "Local",
		ScheduleFile:      DefaultScheduleFile,
		ScheduleSidecar:   DefaultScheduleSidecar,
		FeedbackSidecar:   DefaultFeedbackSidecar,
		APIUsername:       "admin",
		RateLimitHour:     100,
		RateLimitDay:      1000,
		AILLMProvider:     "siliconflow",
		AILLMModel:        "deepseek-ai/DeepSeek-V3",
		AIBaseURL:         "https://api.siliconflow.cn/v1",
		AITemperature:     0.7,
		AITopP:            1.0,
		AIMaxTokens:       3000,
		OptimizeMaxTokens: 2000,
	}
}

// WriteDefaultConfig writes a YAML config template to path. Secrets are left
// empty.
func WriteDefaultConfig(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.Wrap(ErrConfigExists, path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	return fileutil.WriteAtomic(path, 0o600, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// EnvPrefix prefixes the environment variable of every config key, e.g.
// BEBOP_SCHEDULE_FILE for schedule_file.
const EnvPrefix = "BEBOP"

// FromViper decodes the settings held by v onto a new profile. A config file
// set on v is read first; bound flags and environment variables win over it.
func FromViper(v *viper.Viper) (*Profile, error) {
	for _, key := range configKeys() {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", key)
		}
	}
	if path := v.ConfigFileUsed(); path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	p := &Profile{}
	if err := v.Unmarshal(p); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return p, nil
}

// configKeys lists the mapstructure keys of Profile.
func configKeys() []string {
	t := reflect.TypeOf(Profile{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		keys = append(keys, tag)
	}
	return keys
}
