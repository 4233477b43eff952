package main

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const app = "matchctl"

// Config is the merged view of flags, MATCHCTL_* env and the optional
// config file.
type Config struct {
	Snapshot     string        `mapstructure:"snapshot"`
	OntologyFile string        `mapstructure:"ontology-file"`
	Workers      int           `mapstructure:"workers"`
	Weights      WeightsConfig `mapstructure:"weights"`
	JSON         bool          `mapstructure:"json"`
	Debug        bool          `mapstructure:"debug"`
	Database     DBConfig      `mapstructure:"db"`
}

type WeightsConfig struct {
	Skill     float64 `mapstructure:"skill"`
	Education float64 `mapstructure:"education"`
	Position  float64 `mapstructure:"position"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           app,
		Short:         "matchctl ranks jobs and candidates from a snapshot file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initConfig()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "a config file (default is matchctl.yaml in current directory)")
	pf.StringP("snapshot", "s", "", "snapshot file with taxonomy, education levels, candidates and jobs")
	pf.String("ontology-file", "", "position ontology YAML (built-in ontology when empty)")
	pf.Int("workers", runtime.NumCPU(), "scoring workers")
	pf.Float64("weight-skill", 0.6, "skill weight")
	pf.Float64("weight-education", 0.2, "education weight")
	pf.Float64("weight-position", 0.2, "position weight")
	pf.BoolP("debug", "d", false, "verbose/debug output")
	pf.BoolP("json", "j", false, "json format for logging")

	mustBind("snapshot", pf.Lookup("snapshot"))
	mustBind("ontology-file", pf.Lookup("ontology-file"))
	mustBind("workers", pf.Lookup("workers"))
	mustBind("weights.skill", pf.Lookup("weight-skill"))
	mustBind("weights.education", pf.Lookup("weight-education"))
	mustBind("weights.position", pf.Lookup("weight-position"))
	mustBind("debug", pf.Lookup("debug"))
	mustBind("json", pf.Lookup("json"))

	root.AddCommand(newSearchJobsCmd(), newSearchCandidatesCmd(), newScoreCmd(), newSeedCmd())
	return root
}

func mustBind(key string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("flag for %q not found", key))
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func initConfig() error {
	// Keys without a flag must have a default so Unmarshal sees their env
	// overrides.
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.name", "")
	viper.SetDefault("db.user", "")
	viper.SetDefault("db.password", "")
	viper.SetDefault("db.sslmode", "disable")

	viper.SetEnvPrefix("MATCHCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func getConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
