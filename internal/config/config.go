package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/openstack-archive/rst2bash/internal/parser"
)

// Config holds the application configuration
type Config struct {
	SourcePath       string            `mapstructure:"source_path"`
	RootDocument     string            `mapstructure:"root_document"`
	OutputPath       string            `mapstructure:"output_path"`
	AcceptedTags     []string          `mapstructure:"accepted_tags"`
	DefaultTarget    string            `mapstructure:"default_target"`
	DistroTargets    map[string]string `mapstructure:"distro_targets"`
	TemplateContext  map[string]string `mapstructure:"template_context"`
	TargetMarker     string            `mapstructure:"target_marker"`
	SkipMarker       string            `mapstructure:"skip_marker"`
	Strict           bool              `mapstructure:"strict"`
	SudoRootCommands bool              `mapstructure:"sudo_root_commands"`
	LogFile          string            `mapstructure:"log_file"`
}

// C is the global config instance
var C Config

// Init initializes configuration with viper. An explicit config file path
// takes precedence over the search path.
func Init(cfgFile string) error {
	viper.SetDefault("source_path", ".")
	viper.SetDefault("root_document", "index.rst")
	viper.SetDefault("output_path", "./scripts")
	viper.SetDefault("accepted_tags", []string{"bash", "console", "shell"})
	viper.SetDefault("default_target", "controller")
	viper.SetDefault("distro_targets", map[string]string{})
	viper.SetDefault("template_context", map[string]string{})
	viper.SetDefault("target_marker", "script")
	viper.SetDefault("skip_marker", "no-run")
	viper.SetDefault("strict", false)
	viper.SetDefault("sudo_root_commands", false)
	viper.SetDefault("log_file", "")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rst2bash")
		viper.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "rst2bash"))
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("RST2BASH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply. An explicitly
		// requested file must exist.
		if cfgFile != "" {
			return err
		}
	}

	return viper.Unmarshal(&C)
}

// Options builds the resolved options object the extraction core consumes.
func Options() parser.Options {
	return parser.Options{
		Root:             expandTilde(viper.GetString("source_path")),
		RootDocument:     viper.GetString("root_document"),
		AcceptedTags:     viper.GetStringSlice("accepted_tags"),
		DefaultTarget:    viper.GetString("default_target"),
		DistroTargets:    viper.GetStringMapString("distro_targets"),
		TargetMarker:     viper.GetString("target_marker"),
		SkipMarker:       viper.GetString("skip_marker"),
		Strict:           viper.GetBool("strict"),
		SudoRootCommands: viper.GetBool("sudo_root_commands"),
	}
}

// GetOutputPath returns the output directory with tilde expansion
func GetOutputPath() string {
	return expandTilde(viper.GetString("output_path"))
}

// GetTemplateContext returns the template variable mapping
func GetTemplateContext() map[string]string {
	return viper.GetStringMapString("template_context")
}

// GetLogFile returns the debug log file path, empty when disabled
func GetLogFile() string {
	return expandTilde(viper.GetString("log_file"))
}

// SetSourcePath sets the source path at runtime
func SetSourcePath(path string) {
	viper.Set("source_path", path)
	C.SourcePath = path
}

// SetOutputPath sets the output directory at runtime
func SetOutputPath(path string) {
	viper.Set("output_path", path)
	C.OutputPath = path
}

// SetStrict sets strict mode at runtime
func SetStrict(strict bool) {
	viper.Set("strict", strict)
	C.Strict = strict
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
