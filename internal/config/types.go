package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v3"
)

// DeployConfig represents the complete deployment configuration for one VM.
type DeployConfig struct {
	Name     string `yaml:"name"`
	VMID     int    `yaml:"vmid"`
	Node     string `yaml:"node"`
	Storage  string `yaml:"storage"`
	CPUs     int    `yaml:"cpus"`
	MemoryMB int    `yaml:"memory_mb"`
	DiskGB   int    `yaml:"disk_gb"`

	// Image is the local path of the base disk image to upload.
	Image string `yaml:"image"`

	// DiskFormat is the requested base disk format (default: "qcow2").
	// Block-backed storages override this to raw.
	DiskFormat string `yaml:"disk_format,omitempty"`

	// Bridge is the bridge for the VM's first interface (default: "vmbr0").
	Bridge string `yaml:"bridge,omitempty"`

	CloudInit *CloudInitConfig `yaml:"cloud_init,omitempty"`
}

// CloudInitConfig contains cloud-init configuration.
// Follows cloud-init spec: https://cloudinit.readthedocs.io/
// Note: Hostname is derived from FQDN (everything before the first dot).
type CloudInitConfig struct {
	FQDN             string   `yaml:"fqdn,omitempty"`
	SSHKeys          []string `yaml:"ssh_keys,omitempty"`
	RootPasswordHash string   `yaml:"root_password_hash,omitempty"`
	SSHPwAuth        *bool    `yaml:"ssh_pwauth,omitempty"` // Pointer to distinguish unset vs false

	// InstanceID overrides the generated instance-id. Cloud-init re-runs
	// first-boot modules whenever the instance-id changes.
	InstanceID string `yaml:"instance_id,omitempty"`

	Network []NetworkInterface `yaml:"network_interfaces,omitempty"`
}

// NetworkInterface defines a network interface configuration for the
// cloud-init network-config.
type NetworkInterface struct {
	IP           string   `yaml:"ip"` // IP with CIDR, e.g., "10.20.30.40/24"
	Gateway      string   `yaml:"gateway"`
	DNSServers   []string `yaml:"dns_servers,omitempty"`
	DefaultRoute bool     `yaml:"default_route,omitempty"` // Set default route via this interface
}

// Validate checks the configuration for errors.
// Does not validate cluster resources (nodes, storages) - only config structure.
func (c *DeployConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	// Validate name format (after normalization to lowercase).
	// Proxmox VM names must be valid DNS names.
	namePattern := `^[a-z0-9][a-z0-9-]*[a-z0-9]$`
	if len(c.Name) == 1 {
		namePattern = `^[a-z0-9]$`
	}
	matched, err := regexp.MatchString(namePattern, c.Name)
	if err != nil {
		return fmt.Errorf("name validation error: %w", err)
	}
	if !matched {
		return fmt.Errorf("name must be a valid DNS name (alphanumeric and hyphens, starting and ending with alphanumeric), got %q", c.Name)
	}

	// VMIDs below 100 are reserved for internal purposes.
	if c.VMID < 100 {
		return fmt.Errorf("vmid must be >= 100, got %d", c.VMID)
	}

	if c.Node == "" {
		return fmt.Errorf("node is required")
	}
	if c.Storage == "" {
		return fmt.Errorf("storage is required")
	}

	if c.CPUs < 1 {
		return fmt.Errorf("cpus must be >= 1, got %d", c.CPUs)
	}
	if c.MemoryMB < 32 {
		return fmt.Errorf("memory_mb must be >= 32, got %d", c.MemoryMB)
	}
	if c.DiskGB < 4 {
		return fmt.Errorf("disk_gb must be >= 4, got %d", c.DiskGB)
	}

	if c.Image == "" {
		return fmt.Errorf("image is required")
	}

	switch c.DiskFormat {
	case "raw", "qcow2":
	default:
		return fmt.Errorf("disk_format must be raw or qcow2, got %q", c.DiskFormat)
	}

	if c.CloudInit != nil {
		if err := c.CloudInit.Validate(); err != nil {
			return fmt.Errorf("cloud_init: %w", err)
		}
	}

	return nil
}

// Validate checks cloud-init configuration.
func (c *CloudInitConfig) Validate() error {
	// Validate FQDN format if provided
	if c.FQDN != "" {
		// RFC 952/1123: alphanumeric and hyphens, labels separated by dots
		// Each label: 1-63 chars, start/end with alphanumeric
		fqdnPattern := `^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`
		matched, err := regexp.MatchString(fqdnPattern, c.FQDN)
		if err != nil {
			return fmt.Errorf("fqdn validation error: %w", err)
		}
		if !matched {
			return fmt.Errorf("fqdn must be a valid hostname with domain (e.g., host.example.com), got %q", c.FQDN)
		}
	}

	// Validate SSH keys using golang.org/x/crypto/ssh parser
	for i, key := range c.SSHKeys {
		_, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key))
		if err != nil {
			return fmt.Errorf("ssh_keys[%d] is not a valid SSH public key: %w", i, err)
		}
	}

	// Validate password hash format if provided
	if c.RootPasswordHash != "" {
		if len(c.RootPasswordHash) < 10 || c.RootPasswordHash[0] != '$' {
			return fmt.Errorf("root_password_hash must be a valid crypt hash (should start with $)")
		}
	}

	ipsSeen := make(map[string]bool)
	for i, iface := range c.Network {
		if err := iface.Validate(); err != nil {
			return fmt.Errorf("network_interfaces[%d]: %w", i, err)
		}
		if ipsSeen[iface.IP] {
			return fmt.Errorf("network_interfaces[%d]: duplicate IP %q", i, iface.IP)
		}
		ipsSeen[iface.IP] = true
	}

	return nil
}

// Validate checks network interface configuration.
func (n *NetworkInterface) Validate() error {
	if n.IP == "" {
		return fmt.Errorf("ip is required")
	}

	// Validate IP/CIDR format
	ip, ipnet, err := net.ParseCIDR(n.IP)
	if err != nil {
		return fmt.Errorf("invalid ip/cidr format %q: %w", n.IP, err)
	}
	if ip == nil || ipnet == nil {
		return fmt.Errorf("invalid ip/cidr format %q", n.IP)
	}

	if n.DefaultRoute && n.Gateway == "" {
		return fmt.Errorf("gateway is required when default_route is set")
	}
	if n.Gateway != "" && net.ParseIP(n.Gateway) == nil {
		return fmt.Errorf("invalid gateway IP address %q", n.Gateway)
	}

	for i, dns := range n.DNSServers {
		if net.ParseIP(dns) == nil {
			return fmt.Errorf("dns_servers[%d] is not a valid IP address: %q", i, dns)
		}
	}

	return nil
}

// Normalize sanitizes user input to consistent formats.
// This is called automatically by LoadFromFile before validation.
func (c *DeployConfig) Normalize() {
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))

	if c.CloudInit != nil {
		c.CloudInit.FQDN = strings.ToLower(strings.TrimSpace(c.CloudInit.FQDN))
	}

	if c.DiskFormat == "" {
		c.DiskFormat = "qcow2"
	}
	if c.Bridge == "" {
		c.Bridge = "vmbr0"
	}
}

// LoadFromFile loads a deployment configuration from a YAML file.
func LoadFromFile(path string) (*DeployConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config DeployConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Normalize user input before validation
	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
