package env

import (
	"fmt"

	"github.com/spf13/viper"
)

// File is the optional configuration file. Values here are defaults that the
// environment overrides.
type File struct {
	SourceDir string       `mapstructure:"source_dir"`
	OutDir    string       `mapstructure:"out_dir"`
	Backend   string       `mapstructure:"backend"`
	BuildType string       `mapstructure:"build_type"`
	Version   string       `mapstructure:"version"`
	Library   string       `mapstructure:"library"`
	Shared    bool         `mapstructure:"shared"`
	Features  FileFeatures `mapstructure:"features"`
}

// FileFeatures mirrors Features in the configuration file.
type FileFeatures struct {
	Debug   bool `mapstructure:"debug"`
	NoMicro bool `mapstructure:"no_micro"`
	GPU     bool `mapstructure:"gpu"`
}

// LoadFile reads the configuration file at path. An empty path returns the
// built-in defaults.
func LoadFile(path string) (*File, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &f, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_dir", "submodules/tensorflow")
	v.SetDefault("out_dir", "tflite_build_directory")
	v.SetDefault("backend", BackendCMake)
	v.SetDefault("build_type", "release")
	v.SetDefault("version", "v2.20.0")
	v.SetDefault("library", "tensorflow-lite")
	v.SetDefault("shared", true)
	v.SetDefault("features.debug", false)
	v.SetDefault("features.no_micro", false)
	v.SetDefault("features.gpu", false)
}
