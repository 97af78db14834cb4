package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io/ioutil"
	log2 "log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/log"
)

// Environment variables prefixed with "ORMQUERY_" can override settings e.g. "ORMQUERY_PLATFORM"
const envVarPrefix = "ormquery"

var cfgFile string
var logger log.Logger

var rootCmd = &cobra.Command{
	Use:           os.Args[0] + " [COMMAND] [OPTIONS]",
	Short:         "Compile, explain and run ORM queries",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line
func Execute() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&cfgFile, "config", "c", "", "config file")
	flags.Bool("debug", false, "log at debug level, including bind values of executed sql")
	flags.StringP("output", "o", "yaml", "output format. options: yaml,json")
	flags.String("schema", "", "yaml file defining the entity types")

	// Engine settings
	settings := config.NewSettings()
	flags.String("platform", settings.Platform, "database platform. options: "+config.PlatformNames)
	flags.StringSlice("features", nil, "extra platform features to enable")
	flags.Bool("equals-null-noop", false, "treat equals with a nil value as no predicate")
	flags.Int("batch-size", settings.DefaultBatchSize, "default batch size of secondary and lazy loading queries")
	flags.String("sys-period", settings.AsOfSysPeriod, "column prefix of the history period")
	flags.StringSlice("history-tables", nil, "tables with a <table>_with_history view")

	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Name != "config" {
			viper.BindPFlag(flag.Name, flags.Lookup(flag.Name))
		}
	})

	cobra.OnInitialize(initialize)

	viper.SetEnvPrefix(envVarPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(parseCmd, propsCmd, explainCmd, runCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initialize() {
	newLogger := zap.NewProduction
	if viper.GetBool("debug") {
		newLogger = zap.NewDevelopment
	}
	zapLogger, err := newLogger()
	if err != nil {
		log2.Fatalf("unable to initialize logger: %v", err)
	}
	logger = log.NewZapLogger(zapLogger)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err == nil {
			logger.Info("using config file",
				"file", viper.ConfigFileUsed())
		}
	}
}

// engineConfig reads the engine settings from flags, environment and config file
func engineConfig() (*config.EngineConfig, error) {
	settings := config.NewSettings()
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, err
	}
	settings.Features = getStringSlice("features")
	settings.HistoryTables = getStringSlice("history-tables")
	return settings.EngineConfig(logger)
}

// registry returns the types defined by the schema file, empty without one
func registry(cfg config.Config) (*bean.Registry, error) {
	r := bean.NewRegistry(cfg.Naming())
	file := viper.GetString("schema")
	if file == "" {
		return r, nil
	}
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	schema, err := bean.ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", file, err)
	}
	if err := r.Define(schema); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", file, err)
	}
	return r, nil
}

func printResult(value interface{}) error {
	switch format := viper.GetString("output"); format {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	default:
		return fmt.Errorf("unknown output format %s, expected yaml or json", format)
	}
}

func getStringSlice(key string) []string {
	value := viper.GetStringSlice(key)
	slice, err := toStringSlice(value)
	if err != nil {
		logger.Fatal("invalid string slice value for setting",
			"error", err,
			"key", key,
			"value", value)
	}
	return slice
}

func toStringSlice(slice []string) ([]string, error) {
	result := make([]string, 0)
	for _, entry := range slice {
		stringReader := strings.NewReader(entry)
		csvReader := csv.NewReader(stringReader)
		split, err := csvReader.Read()
		if err != nil {
			return nil, err
		}
		for _, part := range split {
			if part != "" { // Don't add empty values
				result = append(result, part)
			}
		}
	}
	return result, nil
}
