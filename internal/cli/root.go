package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"docshelf/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "docshelf",
	Short: "Personal document library with ranked passage retrieval",
	Long: `docshelf keeps a searchable library of your documents. Files are split
into passages, indexed lexically and retrieved with a TF-IDF/BM25 blend,
so questions come back with the passages that answer them.

Example usage:
  docshelf add ~/notes              # Ingest a directory into the library
  docshelf query -q "boiler manual" # Find matching passages
  docshelf ask -q "when is the boiler serviced?"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		setupLogging(cfg.Logging.Level)
		return nil
	},
}

func setupLogging(level string) {
	if level == "" {
		level = "info"
	}
	log.DefaultLogger.Level = log.ParseLevel(level)
	if log.IsTerminal(os.Stderr.Fd()) {
		log.DefaultLogger.Writer = &log.ConsoleWriter{
			ColorOutput:    true,
			EndWithMessage: true,
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docshelf.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "library directory (default is current directory)")
}
