package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alpha200/ha-ai-tasker/internal/config"
	"github.com/Alpha200/ha-ai-tasker/internal/gateway"
	"github.com/Alpha200/ha-ai-tasker/internal/orchestrator"
)

var rootCmd = &cobra.Command{
	Use:   "ha-ai-tasker",
	Short: "ha-ai-tasker - memory-augmented home assistant agent",
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the gateway (HTTP surface, chat channel, scheduled triggers)",
	RunE:  runGateway,
}

var processCmd = &cobra.Command{
	Use:   "process [payload...]",
	Short: "Fire a single autonomous trigger without starting the server",
	RunE:  runProcess,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write a default config file if none exists",
	RunE:  runConfig,
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	g, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return g.Run(context.Background())
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	// One-shot mode never joins the chat room
	cfg.Chat.Enabled = false
	cfg.Trigger.PeriodicEnabled = false

	g, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	defer func() { _ = g.Shutdown() }()

	payload := strings.Join(args, " ")
	if payload == "" {
		payload = "Manual trigger."
	}

	outcome := g.ProcessTrigger(cmd.Context(), payload)
	if outcome.Kind == orchestrator.NoAction {
		fmt.Println("no action")
		return nil
	}
	fmt.Println(outcome.Text)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(config.ConfigPath()); err == nil {
		fmt.Printf("config already exists at %s\n", config.ConfigPath())
		return nil
	}
	if err := config.SaveConfig(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote default config to %s\n", config.ConfigPath())
	return nil
}

func main() {
	rootCmd.AddCommand(gatewayCmd, processCmd, configCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
