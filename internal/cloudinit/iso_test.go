package cloudinit

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/kdomanski/iso9660"
	"gopkg.in/yaml.v3"

	"github.com/cofront/anvil/internal/config"
)

func isoTestConfig() *config.DeployConfig {
	return &config.DeployConfig{
		Name:     "test-vm",
		VMID:     100,
		Node:     "pve1",
		Storage:  "local",
		CPUs:     2,
		MemoryMB: 4096,
		DiskGB:   20,
		Image:    "/var/lib/images/fedora.qcow2",
		CloudInit: &config.CloudInitConfig{
			FQDN:             "test-vm.example.com",
			SSHKeys:          []string{"ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIFoo test@example.com"},
			RootPasswordHash: "$6$rounds=4096$salt$hash",
			SSHPwAuth:        ptrBool(false),
			Network: []config.NetworkInterface{
				{
					IP:           "10.20.30.40/24",
					Gateway:      "10.20.30.1",
					DNSServers:   []string{"8.8.8.8", "1.1.1.1"},
					DefaultRoute: true,
				},
			},
		},
	}
}

func TestGenerateISO(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := GenerateISO(nil)
		if err == nil {
			t.Fatal("GenerateISO() expected error but got nil")
		}
	})

	t.Run("full config", func(t *testing.T) {
		cfg := isoTestConfig()

		isoBytes, err := GenerateISO(cfg)
		if err != nil {
			t.Fatalf("GenerateISO() unexpected error: %v", err)
		}
		if len(isoBytes) == 0 {
			t.Fatal("GenerateISO() returned empty byte slice")
		}

		files := readISOContents(t, isoBytes)

		userData, ok := files["user-data"]
		if !ok {
			t.Fatal("required file \"user-data\" not found in ISO")
		}
		if !strings.HasPrefix(userData, "#cloud-config\n") {
			t.Error("user-data missing #cloud-config header")
		}
		expectedUserData, err := GenerateUserData(cfg)
		if err != nil {
			t.Fatalf("failed to generate expected user-data: %v", err)
		}
		if userData != expectedUserData {
			t.Errorf("user-data content mismatch:\ngot:\n%s\n\nwant:\n%s", userData, expectedUserData)
		}

		// meta-data carries a fresh instance-id per ISO, so verify its
		// structure rather than exact bytes.
		metaData, ok := files["meta-data"]
		if !ok {
			t.Fatal("required file \"meta-data\" not found in ISO")
		}
		var parsed MetaData
		if err := yaml.Unmarshal([]byte(metaData), &parsed); err != nil {
			t.Fatalf("failed to parse meta-data: %v", err)
		}
		if parsed.LocalHostname != "test-vm" {
			t.Errorf("meta-data local-hostname = %q, want test-vm", parsed.LocalHostname)
		}
		if parsed.InstanceID == "" {
			t.Error("meta-data instance-id is empty")
		}

		networkConfig, ok := files["network-config"]
		if !ok {
			t.Fatal("required file \"network-config\" not found in ISO")
		}
		expectedNetwork, err := GenerateNetworkConfig(cfg)
		if err != nil {
			t.Fatalf("failed to generate expected network-config: %v", err)
		}
		if networkConfig != expectedNetwork {
			t.Errorf("network-config content mismatch:\ngot:\n%s\n\nwant:\n%s", networkConfig, expectedNetwork)
		}

		if len(files) != 3 {
			t.Errorf("ISO contains %d files, want 3", len(files))
		}
	})

	t.Run("no interfaces omits network-config", func(t *testing.T) {
		cfg := isoTestConfig()
		cfg.CloudInit.Network = nil

		isoBytes, err := GenerateISO(cfg)
		if err != nil {
			t.Fatalf("GenerateISO() unexpected error: %v", err)
		}

		files := readISOContents(t, isoBytes)
		if _, ok := files["network-config"]; ok {
			t.Error("network-config present despite no configured interfaces")
		}
		if len(files) != 2 {
			t.Errorf("ISO contains %d files, want 2", len(files))
		}
	})
}

// readISOContents opens the ISO and returns a map of root file name to content.
func readISOContents(t *testing.T, isoBytes []byte) map[string]string {
	t.Helper()

	img, err := iso9660.OpenImage(bytes.NewReader(isoBytes))
	if err != nil {
		t.Fatalf("failed to open ISO image: %v", err)
	}

	rootDir, err := img.RootDir()
	if err != nil {
		t.Fatalf("failed to get root directory: %v", err)
	}

	children, err := rootDir.GetChildren()
	if err != nil {
		t.Fatalf("failed to get children: %v", err)
	}

	files := make(map[string]string, len(children))
	for _, child := range children {
		content, err := io.ReadAll(child.Reader())
		if err != nil {
			t.Fatalf("failed to read %s: %v", child.Name(), err)
		}
		files[child.Name()] = string(content)
	}
	return files
}

func TestGenerateISO_VolumeIDFormat(t *testing.T) {
	// The volume ID must be exactly "CIDATA" (uppercase, no truncation)
	isoBytes, err := GenerateISO(isoTestConfig())
	if err != nil {
		t.Fatalf("GenerateISO() error: %v", err)
	}

	img, err := iso9660.OpenImage(bytes.NewReader(isoBytes))
	if err != nil {
		t.Fatalf("failed to open ISO: %v", err)
	}

	volumeID, err := img.Label()
	if err != nil {
		t.Fatalf("failed to get volume label: %v", err)
	}
	if volumeID != "CIDATA" {
		t.Errorf("volume ID = %q, want %q (must be uppercase CIDATA)", volumeID, "CIDATA")
	}
}

func TestWriteISOFile(t *testing.T) {
	cfg := isoTestConfig()
	dir := t.TempDir()

	path, err := WriteISOFile(cfg, dir)
	if err != nil {
		t.Fatalf("WriteISOFile() error: %v", err)
	}

	if !strings.HasSuffix(path, "test-vm-seed.iso") {
		t.Errorf("unexpected ISO path %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written ISO: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("written ISO is empty")
	}

	// The written bytes must be a readable ISO with the NoCloud label.
	img, err := iso9660.OpenImage(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open written ISO: %v", err)
	}
	label, err := img.Label()
	if err != nil {
		t.Fatalf("failed to get volume label: %v", err)
	}
	if label != "CIDATA" {
		t.Errorf("volume ID = %q, want CIDATA", label)
	}
}

// Helper function to create bool pointer
func ptrBool(b bool) *bool {
	return &b
}
