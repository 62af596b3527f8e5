package vm

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cofront/anvil/internal/backend"
	"github.com/cofront/anvil/internal/cloudinit"
	"github.com/cofront/anvil/internal/cluster"
	"github.com/cofront/anvil/internal/config"
	"github.com/cofront/anvil/internal/proxmox"
	"github.com/cofront/anvil/internal/remote"
	"github.com/cofront/anvil/internal/upload"
)

// Create provisions a VM from an already-validated configuration.
//
// This orchestrates the entire provisioning process:
//  1. Resolve the node's live resource limits and validate the request
//  2. Look up the target storage and its backend type
//  3. Create the VM (diskless)
//  4. Upload the base image and attach it as the boot disk
//  5. Generate, upload, and attach the cloud-init seed ISO (if configured)
//
// There is no rollback: a failure leaves everything created so far in
// place for inspection.
func Create(ctx context.Context, conn *config.Connection, cfg *config.DeployConfig) error {
	client := proxmox.NewClient(proxmox.Options{
		APIURL:      conn.APIURL,
		TokenID:     conn.TokenID,
		TokenSecret: conn.TokenSecret,
		InsecureTLS: conn.InsecureTLS,
	})

	sshHost := conn.SSHHostOrAPIHost()
	log.Printf("Connecting to %s over SSH...", sshHost)
	session, err := remote.DialSSH(remote.SSHConfig{
		Host:    sshHost,
		Port:    conn.SSHPort,
		User:    conn.SSHUser,
		KeyPath: conn.SSHKeyPath,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", sshHost, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("Warning: failed to close SSH connection: %v", err)
		}
	}()

	return createWithDeps(ctx, cfg, client, cluster.NewLimits(client), upload.NewUploader(session))
}

// createWithDeps provisions a VM with injected dependencies.
// This allows for testing by accepting interfaces instead of concrete types.
func createWithDeps(ctx context.Context, cfg *config.DeployConfig, api clusterAPI, limits limitResolver, up diskUploader) error {
	// Step 1: Validate the request against live node limits. Nothing is
	// created until all three checks pass.
	log.Printf("Resolving resource limits for node '%s'...", cfg.Node)

	maxCPU, err := limits.MaxCPU(ctx, cfg.Node)
	if err != nil {
		return fmt.Errorf("failed to resolve CPU limit: %w", err)
	}
	if cfg.CPUs > maxCPU {
		return fmt.Errorf("requested %d cpus, but node '%s' has only %d", cfg.CPUs, cfg.Node, maxCPU)
	}

	maxMemoryMB, err := limits.MaxMemoryMB(ctx, cfg.Node)
	if err != nil {
		return fmt.Errorf("failed to resolve memory limit: %w", err)
	}
	if int64(cfg.MemoryMB) > maxMemoryMB {
		return fmt.Errorf("requested %d MB memory, but node '%s' has only %d MB", cfg.MemoryMB, cfg.Node, maxMemoryMB)
	}

	maxDiskGB, err := limits.MaxDiskSizeGB(ctx, cfg.Node, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to resolve disk limit: %w", err)
	}
	if int64(cfg.DiskGB) > maxDiskGB {
		return fmt.Errorf("requested %d GB disk, but storage '%s' on node '%s' has only %d GB available", cfg.DiskGB, cfg.Storage, cfg.Node, maxDiskGB)
	}

	// Step 2: Look up the target storage; its type picks the disk naming
	// and format policy.
	log.Printf("Looking up storage '%s' on node '%s'...", cfg.Storage, cfg.Node)
	storage, err := api.StorageStatus(ctx, cfg.Node, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to look up storage: %w", err)
	}
	if !storage.StoresImages() {
		return fmt.Errorf("storage '%s' does not accept VM disk images", cfg.Storage)
	}

	format, err := backend.ParseFormat(cfg.DiskFormat)
	if err != nil {
		return err
	}

	// Step 3: Create the VM, still diskless.
	log.Printf("Creating VM %d ('%s')...", cfg.VMID, cfg.Name)
	err = api.CreateVM(ctx, cfg.Node, proxmox.CreateVMParams{
		VMID:     cfg.VMID,
		Name:     cfg.Name,
		Cores:    cfg.CPUs,
		MemoryMB: cfg.MemoryMB,
		Bridge:   cfg.Bridge,
	})
	if err != nil {
		return fmt.Errorf("failed to create VM: %w", err)
	}

	// Step 4: Upload the base image and attach it as the boot disk.
	log.Printf("Uploading base disk (%d GB) from %s...", cfg.DiskGB, cfg.Image)
	bootVolume, err := AttachBaseDisk(ctx, api, up, storage, cfg.Node, cfg.VMID, cfg.Image, format, cfg.DiskGB)
	if err != nil {
		return err
	}
	log.Printf("Boot disk attached: %s", bootVolume)

	// Step 5: Generate and attach the cloud-init seed ISO.
	if cfg.CloudInit != nil {
		log.Printf("Generating cloud-init seed ISO...")
		seedDir, err := os.MkdirTemp("", "anvil-seed-")
		if err != nil {
			return fmt.Errorf("failed to create temp dir for seed ISO: %w", err)
		}
		defer func() {
			if err := os.RemoveAll(seedDir); err != nil {
				log.Printf("Warning: failed to remove temp dir %s: %v", seedDir, err)
			}
		}()

		isoPath, err := cloudinit.WriteISOFile(cfg, seedDir)
		if err != nil {
			return fmt.Errorf("failed to generate seed ISO: %w", err)
		}

		log.Printf("Uploading seed ISO...")
		seedVolume, err := AttachSeedISO(ctx, api, up, storage, cfg.Node, cfg.VMID, isoPath)
		if err != nil {
			return err
		}
		log.Printf("Seed ISO attached: %s", seedVolume)
	} else {
		log.Printf("Skipping cloud-init (not configured)")
	}

	log.Printf("VM %d ('%s') provisioned successfully!", cfg.VMID, cfg.Name)
	return nil
}
