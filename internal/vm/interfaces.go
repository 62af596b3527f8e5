package vm

import (
	"context"

	"github.com/cofront/anvil/internal/backend"
	"github.com/cofront/anvil/internal/cluster"
	"github.com/cofront/anvil/internal/proxmox"
)

// configSetter applies configuration keys to an existing VM.
//
// In production, this is satisfied by *proxmox.Client.
// In tests, this is satisfied by mock implementations.
type configSetter interface {
	// SetVMConfig applies configuration keys, e.g. binding a volume to a bus slot
	SetVMConfig(ctx context.Context, node string, vmid int, options map[string]string) error
}

// clusterAPI defines the cluster operations needed for provisioning.
//
// In production, this is satisfied by *proxmox.Client.
// In tests, this is satisfied by mock implementations.
type clusterAPI interface {
	configSetter

	// StorageStatus returns the live status of one storage on a node
	StorageStatus(ctx context.Context, node, storage string) (cluster.Storage, error)

	// CreateVM creates a stopped, diskless VM
	CreateVM(ctx context.Context, node string, params proxmox.CreateVMParams) error
}

// limitResolver resolves the resource ceilings a node can honor.
//
// In production, this is satisfied by *cluster.Limits.
type limitResolver interface {
	MaxCPU(ctx context.Context, node string) (int, error)
	MaxMemoryMB(ctx context.Context, node string) (int64, error)
	MaxDiskSizeGB(ctx context.Context, node, storage string) (int64, error)
}

// diskUploader pushes a local file into a newly allocated volume and
// returns the volume ID.
//
// In production, this is satisfied by *upload.Uploader.
type diskUploader interface {
	Upload(ctx context.Context, storage cluster.Storage, vmid int, localPath string, format backend.Format, label string, sizeKB int64) (string, error)
}
