package backend

import (
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "raw", input: "raw", want: FormatRaw},
		{name: "qcow2", input: "qcow2", want: FormatQCOW2},
		{name: "vmdk rejected", input: "vmdk", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "case sensitive", input: "QCOW2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestForType(t *testing.T) {
	tests := []struct {
		name        string
		storageType string
		wantType    string
		wantErr     bool
	}{
		{name: "dir storage", storageType: "dir", wantType: "dir"},
		{name: "lvm storage", storageType: "lvm", wantType: "lvm"},
		{name: "zfs unsupported", storageType: "zfs", wantErr: true},
		{name: "lvmthin unsupported", storageType: "lvmthin", wantErr: true},
		{name: "empty unsupported", storageType: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ForType(tt.storageType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ForType(%q) error = %v, wantErr %v", tt.storageType, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if b.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", b.Type(), tt.wantType)
			}
		})
	}
}

func TestDirectoryBackend_Naming(t *testing.T) {
	b, err := ForType("dir")
	if err != nil {
		t.Fatalf("ForType(dir) failed: %v", err)
	}

	tests := []struct {
		name       string
		vmid       int
		label      string
		format     Format
		wantDisk   string
		wantVolume string
	}{
		{
			name:       "qcow2 base disk",
			vmid:       100,
			label:      "base-disk",
			format:     FormatQCOW2,
			wantDisk:   "vm-100-base-disk.qcow2",
			wantVolume: "local:100/vm-100-base-disk.qcow2",
		},
		{
			name:       "raw seed disk",
			vmid:       4711,
			label:      "cloudinit-seed",
			format:     FormatRaw,
			wantDisk:   "vm-4711-cloudinit-seed.raw",
			wantVolume: "local:4711/vm-4711-cloudinit-seed.raw",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disk := b.DiskName(tt.vmid, tt.label, tt.format)
			if disk != tt.wantDisk {
				t.Errorf("DiskName() = %q, want %q", disk, tt.wantDisk)
			}

			volid := b.VolumeID("local", tt.vmid, disk)
			if volid != tt.wantVolume {
				t.Errorf("VolumeID() = %q, want %q", volid, tt.wantVolume)
			}

			// Directory volume IDs always end in the requested extension.
			if !strings.HasSuffix(volid, "."+string(tt.format)) {
				t.Errorf("VolumeID() = %q, want suffix %q", volid, "."+string(tt.format))
			}
		})
	}
}

func TestDirectoryBackend_EffectiveFormat(t *testing.T) {
	b, _ := ForType("dir")
	if got := b.EffectiveFormat(FormatQCOW2); got != FormatQCOW2 {
		t.Errorf("EffectiveFormat(qcow2) = %q, want qcow2", got)
	}
	if got := b.EffectiveFormat(FormatRaw); got != FormatRaw {
		t.Errorf("EffectiveFormat(raw) = %q, want raw", got)
	}
}

func TestLVMBackend_Naming(t *testing.T) {
	b, err := ForType("lvm")
	if err != nil {
		t.Fatalf("ForType(lvm) failed: %v", err)
	}

	// LVM disk names carry no extension regardless of the requested format.
	for _, format := range []Format{FormatRaw, FormatQCOW2} {
		disk := b.DiskName(200, "base-disk", format)
		if disk != "vm-200-base-disk" {
			t.Errorf("DiskName(format=%s) = %q, want %q", format, disk, "vm-200-base-disk")
		}

		volid := b.VolumeID("vg0", 200, disk)
		if volid != "vg0:vm-200-base-disk" {
			t.Errorf("VolumeID(format=%s) = %q, want %q", format, volid, "vg0:vm-200-base-disk")
		}
		if strings.Contains(volid, ".") {
			t.Errorf("VolumeID(format=%s) = %q, must not contain a file extension", format, volid)
		}
	}
}

func TestLVMBackend_ForcesRaw(t *testing.T) {
	b, _ := ForType("lvm")
	if got := b.EffectiveFormat(FormatQCOW2); got != FormatRaw {
		t.Errorf("EffectiveFormat(qcow2) = %q, want raw", got)
	}
	if got := b.EffectiveFormat(FormatRaw); got != FormatRaw {
		t.Errorf("EffectiveFormat(raw) = %q, want raw", got)
	}
}
