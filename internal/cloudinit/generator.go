// Package cloudinit provides cloud-init configuration generation for VM provisioning.
//
// This package generates cloud-init configuration files (user-data, meta-data, network-config)
// following the official cloud-init NoCloud datasource specification.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/datasources/nocloud.html
package cloudinit

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cofront/anvil/internal/config"
)

// UserData represents the cloud-config user-data structure.
// This is marshaled to YAML and prefixed with "#cloud-config" header.
//
// See https://cloudinit.readthedocs.io/en/latest/explanation/format.html#cloud-config-data
type UserData struct {
	Hostname          string    `yaml:"hostname"`
	FQDN              string    `yaml:"fqdn"`
	SSHAuthorizedKeys []string  `yaml:"ssh_authorized_keys,omitempty"`
	Chpasswd          *Chpasswd `yaml:"chpasswd,omitempty"`
	SSHPasswordAuth   bool      `yaml:"ssh_pwauth"`
	Output            *Output   `yaml:"output,omitempty"`
}

// Chpasswd configures user password settings.
type Chpasswd struct {
	Expire bool   `yaml:"expire"` // Whether to expire passwords on first login
	List   string `yaml:"list"`   // Format: "username:hash"
}

// Output configures cloud-init output logging.
type Output struct {
	All string `yaml:"all"`
}

// MetaData represents the cloud-init meta-data structure.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/datasources/nocloud.html
type MetaData struct {
	InstanceID    string `yaml:"instance-id"`
	LocalHostname string `yaml:"local-hostname"`
}

// NetworkConfig represents the netplan v2 network configuration.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/network-config-format-v2.html
type NetworkConfig struct {
	Version   int                       `yaml:"version"`
	Ethernets map[string]EthernetConfig `yaml:"ethernets"`
}

// EthernetConfig represents a single ethernet interface configuration.
type EthernetConfig struct {
	Addresses   []string      `yaml:"addresses"`
	Routes      []RouteConfig `yaml:"routes,omitempty"`
	Nameservers *Nameservers  `yaml:"nameservers,omitempty"`
}

// RouteConfig represents a static route.
type RouteConfig struct {
	To  string `yaml:"to"`
	Via string `yaml:"via"`
}

// Nameservers represents DNS server configuration.
type Nameservers struct {
	Addresses []string `yaml:"addresses"`
}

// GenerateUserData generates the user-data YAML content from the deployment
// configuration.
//
// Returns the complete user-data file content including the "#cloud-config" header.
func GenerateUserData(cfg *config.DeployConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("deployment configuration cannot be nil")
	}

	// Derive hostname from FQDN or VM name
	hostname := cfg.Name
	fqdn := cfg.Name
	if cfg.CloudInit != nil && cfg.CloudInit.FQDN != "" {
		fqdn = cfg.CloudInit.FQDN
		// Extract hostname from FQDN (everything before first dot)
		hostname = strings.SplitN(fqdn, ".", 2)[0]
	}

	userData := UserData{
		Hostname:        hostname,
		FQDN:            fqdn,
		SSHPasswordAuth: false,
		Output: &Output{
			All: "| tee -a /var/log/cloud-init-output.log",
		},
	}

	if cfg.CloudInit != nil {
		if len(cfg.CloudInit.SSHKeys) > 0 {
			userData.SSHAuthorizedKeys = cfg.CloudInit.SSHKeys
		}

		if cfg.CloudInit.RootPasswordHash != "" {
			userData.Chpasswd = &Chpasswd{
				Expire: false,
				List:   fmt.Sprintf("root:%s", cfg.CloudInit.RootPasswordHash),
			}
		}

		if cfg.CloudInit.SSHPwAuth != nil {
			userData.SSHPasswordAuth = *cfg.CloudInit.SSHPwAuth
		}
	}

	yamlBytes, err := yaml.Marshal(&userData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal user-data to YAML: %w", err)
	}

	// Prepend #cloud-config header (required by cloud-init spec)
	return "#cloud-config\n" + string(yamlBytes), nil
}

// GenerateMetaData generates the meta-data YAML content from the deployment
// configuration.
//
// Cloud-init uses instance-id to decide whether this is a first boot. Unless
// the configuration pins one, a fresh UUID is generated so first-boot modules
// run on every deployment.
func GenerateMetaData(cfg *config.DeployConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("deployment configuration cannot be nil")
	}

	instanceID := ""
	if cfg.CloudInit != nil {
		instanceID = cfg.CloudInit.InstanceID
	}
	if instanceID == "" {
		instanceID = uuid.New().String()
	}

	metaData := MetaData{
		InstanceID:    instanceID,
		LocalHostname: cfg.Name,
	}

	yamlBytes, err := yaml.Marshal(&metaData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal meta-data to YAML: %w", err)
	}

	return string(yamlBytes), nil
}

// GenerateNetworkConfig generates the network-config YAML content from the
// deployment configuration.
//
// Uses netplan version 2 format with interfaces named eth0, eth1, ... in
// declaration order. Returns an empty string when no interfaces are
// configured; the guest then falls back to its default (usually DHCP).
//
// See https://cloudinit.readthedocs.io/en/latest/reference/network-config-format-v2.html
func GenerateNetworkConfig(cfg *config.DeployConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("deployment configuration cannot be nil")
	}

	if cfg.CloudInit == nil || len(cfg.CloudInit.Network) == 0 {
		return "", nil
	}

	networkConfig := NetworkConfig{
		Version:   2,
		Ethernets: make(map[string]EthernetConfig),
	}

	for i, iface := range cfg.CloudInit.Network {
		ethName := fmt.Sprintf("eth%d", i)

		ethConfig := EthernetConfig{
			Addresses: []string{iface.IP},
		}

		if iface.DefaultRoute {
			ethConfig.Routes = []RouteConfig{
				{
					To:  "0.0.0.0/0",
					Via: iface.Gateway,
				},
			}
		}

		if len(iface.DNSServers) > 0 {
			ethConfig.Nameservers = &Nameservers{
				Addresses: iface.DNSServers,
			}
		}

		networkConfig.Ethernets[ethName] = ethConfig
	}

	yamlBytes, err := yaml.Marshal(&networkConfig)
	if err != nil {
		return "", fmt.Errorf("failed to marshal network-config to YAML: %w", err)
	}

	return string(yamlBytes), nil
}
