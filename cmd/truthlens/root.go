package main

import (
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"truthlens/internal/config"
	"truthlens/internal/logging"
	"truthlens/internal/services/classifier"
	"truthlens/internal/services/llm"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := os.Getenv("CONFIG_FILE")
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) service() (*classifier.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	generator, err := llm.New(cfg.ModelConfig())
	if err != nil {
		return nil, err
	}
	return classifier.NewService(generator,
		classifier.WithLengthBounds(cfg.Input.MinLength, cfg.Input.MaxLength),
		classifier.WithBatchMaxItems(cfg.Input.BatchMaxItems),
	), nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "truthlens",
		Short:         "Classify news text as real or fake with a local language model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(logLevelFlag, "console")
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newClassifyCommand(ctx))
	rootCmd.AddCommand(newBatchCommand(ctx))
	rootCmd.AddCommand(newHealthCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
