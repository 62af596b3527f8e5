// Package cloudinit provides cloud-init configuration generation for VM provisioning.
package cloudinit

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kdomanski/iso9660"

	"github.com/cofront/anvil/internal/config"
)

// GenerateISO creates a cloud-init NoCloud ISO image from the deployment
// configuration.
//
// The generated ISO contains the cloud-init seed files in the root directory:
//   - user-data: Cloud-config YAML with hostname, SSH keys, passwords
//   - meta-data: Instance metadata (instance-id, local-hostname)
//   - network-config: Netplan v2 network configuration (only when interfaces
//     are configured)
//
// The ISO volume label is set to "CIDATA" as required by the cloud-init NoCloud datasource.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/datasources/nocloud.html
//
// Returns the ISO image as a byte slice, ready to be staged on a cluster node.
func GenerateISO(cfg *config.DeployConfig) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("deployment configuration cannot be nil")
	}

	userData, err := GenerateUserData(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user-data: %w", err)
	}

	metaData, err := GenerateMetaData(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate meta-data: %w", err)
	}

	networkConfig, err := GenerateNetworkConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate network-config: %w", err)
	}

	writer, err := iso9660.NewWriter()
	if err != nil {
		return nil, fmt.Errorf("failed to create ISO writer: %w", err)
	}
	defer func() {
		// Cleanup temporary files created by the ISO writer.
		// Errors during cleanup don't fail the operation since the ISO
		// has already been generated.
		_ = writer.Cleanup()
	}()

	// AddFile takes an io.Reader, so wrap the strings in bytes.NewReader
	if err := writer.AddFile(bytes.NewReader([]byte(userData)), "user-data"); err != nil {
		return nil, fmt.Errorf("failed to add user-data: %w", err)
	}

	if err := writer.AddFile(bytes.NewReader([]byte(metaData)), "meta-data"); err != nil {
		return nil, fmt.Errorf("failed to add meta-data: %w", err)
	}

	if networkConfig != "" {
		if err := writer.AddFile(bytes.NewReader([]byte(networkConfig)), "network-config"); err != nil {
			return nil, fmt.Errorf("failed to add network-config: %w", err)
		}
	}

	var buf bytes.Buffer

	// The volume identifier "CIDATA" is required by the cloud-init NoCloud
	// datasource and must be uppercase.
	if err := writer.WriteTo(&buf, "CIDATA"); err != nil {
		return nil, fmt.Errorf("failed to write ISO image: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteISOFile generates the seed ISO and writes it to a file under dir,
// named <vm-name>-seed.iso. It returns the file path.
func WriteISOFile(cfg *config.DeployConfig, dir string) (string, error) {
	data, err := GenerateISO(cfg)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-seed.iso", cfg.Name))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write ISO file: %w", err)
	}
	return path, nil
}
