package vm

import (
	"context"
	"fmt"

	"github.com/cofront/anvil/internal/backend"
	"github.com/cofront/anvil/internal/cluster"
)

// Bus slot assignments. The base disk always boots; the seed ISO rides on
// the next slot so cloud-init finds it on first boot.
const (
	baseDiskLabel  = "base-disk"
	baseDiskDevice = "virtio0"

	seedLabel  = "cloudinit-seed"
	seedDevice = "virtio1"
)

// AttachBaseDisk uploads the base image into a new volume of the configured
// size and binds it to the VM as its boot disk. The volume is only bound
// after the upload succeeded, so a failed upload never leaves the VM
// pointing at a half-written disk.
//
// Returns the volume ID of the attached disk.
func AttachBaseDisk(ctx context.Context, api configSetter, up diskUploader, storage cluster.Storage, node string, vmid int, imagePath string, format backend.Format, diskGB int) (string, error) {
	// The volume is allocated at the requested VM disk size, not the
	// image size; the image grows into it on first boot.
	sizeKB := int64(diskGB) * 1024 * 1024

	volumeID, err := up.Upload(ctx, storage, vmid, imagePath, format, baseDiskLabel, sizeKB)
	if err != nil {
		return "", fmt.Errorf("failed to upload base disk: %w", err)
	}

	options := map[string]string{
		baseDiskDevice: volumeID,
		"bootdisk":     baseDiskDevice,
	}
	if err := api.SetVMConfig(ctx, node, vmid, options); err != nil {
		return "", fmt.Errorf("failed to attach base disk %q: %w", volumeID, err)
	}
	return volumeID, nil
}

// AttachSeedISO uploads a cloud-init seed ISO into a new raw volume sized
// from the file and binds it to the VM's seed slot.
//
// Returns the volume ID of the attached ISO.
func AttachSeedISO(ctx context.Context, api configSetter, up diskUploader, storage cluster.Storage, node string, vmid int, isoPath string) (string, error) {
	// Seed ISOs are always raw; a size of 0 sizes the volume from the file.
	volumeID, err := up.Upload(ctx, storage, vmid, isoPath, backend.FormatRaw, seedLabel, 0)
	if err != nil {
		return "", fmt.Errorf("failed to upload seed ISO: %w", err)
	}

	options := map[string]string{
		seedDevice: volumeID,
	}
	if err := api.SetVMConfig(ctx, node, vmid, options); err != nil {
		return "", fmt.Errorf("failed to attach seed ISO %q: %w", volumeID, err)
	}
	return volumeID, nil
}
