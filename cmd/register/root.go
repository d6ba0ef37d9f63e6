package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wrongjunior/eventboard/internal/config"
	"github.com/wrongjunior/eventboard/internal/credentials"
	"github.com/wrongjunior/eventboard/internal/discord"
	"github.com/wrongjunior/eventboard/internal/repository"
)

const registerTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "register",
		Short: "Manage the /events slash command",
		Long: `Pushes the /events command definition to Discord or prints it.

Commands:
  push      Overwrite the application's global commands
  schema    Print the command definition as YAML`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file (YAML or JSON)")

	push := &cobra.Command{
		Use:   "push",
		Short: "Overwrite the application's global commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd, configPath)
		},
	}

	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the command definition as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(discord.EventCommands()); err != nil {
				return fmt.Errorf("encode schema: %w", err)
			}
			return enc.Close()
		},
	}

	root.AddCommand(push, schema)
	return root
}

func runPush(cmd *cobra.Command, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Discord.ApplicationID == "" {
		return fmt.Errorf("discord application id is not set")
	}
	if cfg.Discord.BotToken == "" && cfg.Discord.TokenParameter == "" {
		return fmt.Errorf("neither bot token nor token parameter is set")
	}
	logger := cfg.NewLogger()

	ctx, cancel := context.WithTimeout(cmd.Context(), registerTimeout)
	defer cancel()

	var awsCfg aws.Config
	if credentials.NeedsAWS(cfg.Discord) {
		if awsCfg, err = repository.LoadAWSConfig(ctx, cfg.Store.Region); err != nil {
			return err
		}
	}

	client := discord.NewClient(discord.ClientConfig{
		BaseURL:       cfg.Discord.APIBaseURL,
		ApplicationID: cfg.Discord.ApplicationID,
		Tokens:        credentials.FromConfig(cfg.Discord, awsCfg),
		RateLimit:     cfg.Discord.RateLimit,
		RateBurst:     cfg.Discord.RateBurst,
		Logger:        logger,
	})
	registered, err := client.BulkOverwriteCommands(ctx, discord.EventCommands())
	if err != nil {
		return err
	}
	for _, c := range registered {
		fmt.Fprintf(cmd.OutOrStdout(), "registered /%s (id %s)\n", c.Name, c.ID)
	}
	return nil
}
