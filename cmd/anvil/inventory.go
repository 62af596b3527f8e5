package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cofront/anvil/internal/cluster"
	"github.com/cofront/anvil/internal/config"
	"github.com/cofront/anvil/internal/output"
	"github.com/cofront/anvil/internal/proxmox"
)

// apiClient builds a Proxmox API client from the ANVIL_* environment.
func apiClient() (*proxmox.Client, error) {
	conn, err := config.LoadConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to load connection settings: %w", err)
	}

	return proxmox.NewClient(proxmox.Options{
		APIURL:      conn.APIURL,
		TokenID:     conn.TokenID,
		TokenSecret: conn.TokenSecret,
		InsecureTLS: conn.InsecureTLS,
	}), nil
}

func newFormatter() (output.Formatter, error) {
	if err := output.ValidateFormat(outputFormat); err != nil {
		return nil, err
	}
	return output.NewFormatter(output.Options{
		Format:    output.Format(outputFormat),
		NoHeaders: noHeaders,
	})
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List cluster nodes",
	Long: `List the nodes in the Proxmox cluster.

Shows each node's name and its capacity ceilings (CPU threads, memory,
root disk).

Output formats:
  -o table  Human-readable table (default)
  -o yaml   YAML list
  -o json   JSON list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiClient()
		if err != nil {
			return err
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}

		ctx := context.Background()
		nodes, err := client.ListNodes(ctx)
		if err != nil {
			return fmt.Errorf("failed to list nodes: %w", err)
		}

		result, err := formatter.FormatNodes(output.NodeRows(nodes))
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}

var (
	storagesNode   string
	storagesImages bool
)

var storagesCmd = &cobra.Command{
	Use:   "storages",
	Short: "List storages on a node",
	Long: `List the storages available on a cluster node.

Shows each storage's name, type, free space, and the content classes it
accepts. With --images, only storages that can hold VM disk images are
shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiClient()
		if err != nil {
			return err
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}

		ctx := context.Background()
		var storages []cluster.Storage
		if storagesImages {
			storages, err = cluster.NewLimits(client).ListImageStorages(ctx, storagesNode)
		} else {
			storages, err = client.ListStorages(ctx, storagesNode)
		}
		if err != nil {
			return fmt.Errorf("failed to list storages: %w", err)
		}

		result, err := formatter.FormatStorages(output.StorageRows(storages))
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}

var (
	limitsNode    string
	limitsStorage string
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show resource limits for VM creation",
	Long: `Show the maximum CPU, memory, and disk size a new VM may request.

Without --node, the limits are the minimum across all cluster nodes, so
a VM sized within them fits anywhere. Disk limits are per storage and
require --storage (and --node when a storage is named).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiClient()
		if err != nil {
			return err
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}

		ctx := context.Background()
		limits := cluster.NewLimits(client)

		maxCPU, err := limits.MaxCPU(ctx, limitsNode)
		if err != nil {
			return fmt.Errorf("failed to resolve CPU limit: %w", err)
		}

		maxMemoryMB, err := limits.MaxMemoryMB(ctx, limitsNode)
		if err != nil {
			return fmt.Errorf("failed to resolve memory limit: %w", err)
		}

		out := output.Limits{
			Node:        limitsNode,
			MaxCPU:      maxCPU,
			MaxMemoryMB: int(maxMemoryMB),
		}

		if limitsStorage != "" {
			maxDiskGB, err := limits.MaxDiskSizeGB(ctx, limitsNode, limitsStorage)
			if err != nil {
				return fmt.Errorf("failed to resolve disk limit: %w", err)
			}
			out.Storage = limitsStorage
			out.MaxDiskGB = int(maxDiskGB)
		}

		result, err := formatter.FormatLimits(out)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}

func init() {
	storagesCmd.Flags().StringVar(&storagesNode, "node", "", "Cluster node to list storages on (required)")
	storagesCmd.Flags().BoolVar(&storagesImages, "images", false, "Only show storages that can hold VM disk images")
	if err := storagesCmd.MarkFlagRequired("node"); err != nil {
		panic(err)
	}

	limitsCmd.Flags().StringVar(&limitsNode, "node", "", "Resolve limits for a single node instead of the whole cluster")
	limitsCmd.Flags().StringVar(&limitsStorage, "storage", "", "Storage to resolve the disk size limit against")
}
