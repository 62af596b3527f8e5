package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cofront/anvil/internal/config"
	"github.com/cofront/anvil/internal/vm"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "anvil",
	Short: "Anvil - Proxmox VM provisioning tool",
	Long: `Anvil is a CLI tool for provisioning Proxmox VMs from simple YAML
configuration files.

It creates the VM through the Proxmox API, uploads the base image over
SSH into the target storage, and attaches a cloud-init seed ISO so the
machine boots fully configured.

Cluster connection settings are read from ANVIL_* environment variables
(ANVIL_API_URL, ANVIL_TOKEN_ID, ANVIL_TOKEN_SECRET, ...).`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

var (
	outputFormat string
	noHeaders    bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, yaml, json")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false, "Omit headers in table output")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(storagesCmd)
	rootCmd.AddCommand(limitsCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <config.yaml>",
	Short: "Create a VM from a configuration file",
	Long: `Create a new virtual machine from a YAML configuration file.

The configuration file defines the VM's resources (CPU, memory, disk),
the base image to upload, and the cloud-init settings. The target node
and storage are checked against the cluster's available capacity before
anything is created.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := args[0]
		fmt.Printf("Creating VM from config: %s\n", configPath)

		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		conn, err := config.LoadConnection()
		if err != nil {
			return fmt.Errorf("failed to load connection settings: %w", err)
		}

		ctx := context.Background()
		if err := vm.Create(ctx, conn, cfg); err != nil {
			return fmt.Errorf("failed to create VM: %w", err)
		}

		fmt.Printf("✓ VM %d (%s) created successfully!\n", cfg.VMID, cfg.Name)
		return nil
	},
}
