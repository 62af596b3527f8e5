// Package backend selects naming and format policies for Proxmox storage
// backends. Only directory ("dir") and LVM ("lvm") backed storages are
// supported; the two differ in how allocated disks are named, how the
// cluster-wide volume ID is formed, and which image formats they accept.
package backend

import "fmt"

// Format is a disk image format accepted by the cluster storage layer.
type Format string

const (
	// FormatRaw is a raw block image.
	FormatRaw Format = "raw"
	// FormatQCOW2 is a QEMU copy-on-write v2 image.
	FormatQCOW2 Format = "qcow2"
)

// ParseFormat validates a caller-provided format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatRaw, FormatQCOW2:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported disk format: %q (must be raw or qcow2)", s)
	}
}

// Backend describes the naming and format policy of one storage backend type.
//
// A Backend is a pure value: selecting one never touches the cluster, so an
// unsupported storage type is rejected before any remote command runs.
type Backend interface {
	// Type returns the Proxmox storage type string this backend handles.
	Type() string

	// DiskName returns the backend-specific name for a newly allocated disk.
	DiskName(vmid int, label string, format Format) string

	// VolumeID returns the cluster-wide canonical identifier for a disk.
	VolumeID(storage string, vmid int, diskName string) string

	// EffectiveFormat maps the caller-requested format to the format the
	// backend actually allocates.
	EffectiveFormat(requested Format) Format
}

// ForType returns the Backend for a storage's declared type.
//
// Returns an error for any type outside the supported set. Callers must
// run this before issuing remote commands so unsupported storages fail
// without side effects.
func ForType(storageType string) (Backend, error) {
	switch storageType {
	case "dir":
		return directoryBackend{}, nil
	case "lvm":
		return lvmBackend{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q: only dir and lvm storage are supported", storageType)
	}
}

// directoryBackend stores disks as files in a flat directory. Disk names
// carry the image format as a file extension and volume IDs are namespaced
// by VM ID.
type directoryBackend struct{}

func (directoryBackend) Type() string { return "dir" }

func (directoryBackend) DiskName(vmid int, label string, format Format) string {
	return fmt.Sprintf("vm-%d-%s.%s", vmid, label, format)
}

func (directoryBackend) VolumeID(storage string, vmid int, diskName string) string {
	return fmt.Sprintf("%s:%d/%s", storage, vmid, diskName)
}

func (directoryBackend) EffectiveFormat(requested Format) Format { return requested }

// lvmBackend allocates logical volumes. LVM only supports raw disks, so the
// requested format is overridden, and disk names never carry an extension.
type lvmBackend struct{}

func (lvmBackend) Type() string { return "lvm" }

func (lvmBackend) DiskName(vmid int, label string, _ Format) string {
	return fmt.Sprintf("vm-%d-%s", vmid, label)
}

func (lvmBackend) VolumeID(storage string, _ int, diskName string) string {
	return fmt.Sprintf("%s:%s", storage, diskName)
}

func (lvmBackend) EffectiveFormat(Format) Format { return FormatRaw }
