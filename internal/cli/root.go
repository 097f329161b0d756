package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/codelens/internal/logging"
	"github.com/ppiankov/codelens/internal/model"
	"github.com/ppiankov/codelens/internal/pipeline"
	"github.com/ppiankov/codelens/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const version = "codelens v0.3.0"

var (
	cfgFile  string
	verbose  bool
	logLevel string

	// Populated by loadRuntime before any subcommand runs
	appConfig *model.Config
	logger    = logging.Discard()
	logCloser io.Closer
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "codelens",
	Short: "codelens - Building code comparison across jurisdictions",
	Long: `codelens compares the text of building code sections adopted by
different jurisdictions.

For each pair of texts it measures TF-IDF similarity, extracts measurements,
requirements, technical terms and references, and reports which requirements
one jurisdiction imposes that the other does not.

The impact index is computed from extracted entities only. An optional LLM
summary is rendered separately and never changes it.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of codelens.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.codelens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: info, debug, trace (overrides config)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".codelens"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CODELENS_* (CODELENS_HTTP_TIMEOUT -> http.timeout)
	viper.SetEnvPrefix("CODELENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadRuntime resolves the effective configuration and builds the logger
func loadRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if logLevel == "" && verbose && strings.EqualFold(cfg.Logging.Level, "info") {
		cfg.Logging.Level = "debug"
	}

	appConfig = cfg
	logger, logCloser = logging.FromConfig(cfg.Logging)
	return nil
}

// optionalKeys are omitted from the marshaled defaults when empty, so they
// must be bound explicitly for environment overrides to reach them
var optionalKeys = []string{
	"llm.api_key", "llm.base_url",
	"http.http_proxy", "http.https_proxy", "http.no_proxy",
	"logging.file",
}

// loadConfig layers config file and environment over model.DefaultConfig
func loadConfig() (*model.Config, error) {
	defaults := model.DefaultConfig()

	raw, err := yaml.Marshal(defaults)
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults("", tree)
	for _, key := range optionalKeys {
		_ = viper.BindEnv(key)
	}

	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(prefix string, tree map[string]interface{}) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			setDefaults(full, nested)
			continue
		}
		viper.SetDefault(full, value)
	}
}

// newPipeline builds a pipeline with per-host rate limiting
func newPipeline(cfg *model.Config) *pipeline.Pipeline {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	for host, rps := range cfg.RateLimiting.Hosts {
		limiter.SetHostRate(host, rps, 0)
	}
	return pipeline.NewPipeline(cfg,
		pipeline.WithLogger(logger),
		pipeline.WithLimiter(limiter))
}
