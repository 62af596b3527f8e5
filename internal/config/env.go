package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// Connection holds the cluster endpoints read from the environment:
// the HTTPS API for inventory and VM lifecycle, and SSH to the target
// node for image staging.
//
// All variables use the ANVIL_ prefix, e.g. ANVIL_API_URL.
type Connection struct {
	APIURL      string
	TokenID     string
	TokenSecret string
	InsecureTLS bool

	SSHHost    string
	SSHPort    int
	SSHUser    string
	SSHKeyPath string
}

// LoadConnection reads the connection settings from the environment.
func LoadConnection() (*Connection, error) {
	v := viper.New()
	v.SetDefault("ssh_port", 22)
	v.SetDefault("ssh_user", "root")
	v.SetDefault("ssh_key_path", "~/.ssh/id_rsa")

	v.SetEnvPrefix("anvil")
	v.AutomaticEnv()

	conn := &Connection{
		APIURL:      v.GetString("api_url"),
		TokenID:     v.GetString("token_id"),
		TokenSecret: v.GetString("token_secret"),
		InsecureTLS: v.GetBool("insecure_tls"),
		SSHHost:     v.GetString("ssh_host"),
		SSHPort:     v.GetInt("ssh_port"),
		SSHUser:     v.GetString("ssh_user"),
		SSHKeyPath:  v.GetString("ssh_key_path"),
	}

	if err := conn.Validate(); err != nil {
		return nil, err
	}
	return conn, nil
}

// Validate checks the connection settings.
func (c *Connection) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("ANVIL_API_URL is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("ANVIL_API_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("ANVIL_API_URL must be an http(s) URL, got %q", c.APIURL)
	}

	if c.TokenID == "" {
		return fmt.Errorf("ANVIL_TOKEN_ID is required")
	}
	if c.TokenSecret == "" {
		return fmt.Errorf("ANVIL_TOKEN_SECRET is required")
	}

	if c.SSHPort < 1 || c.SSHPort > 65535 {
		return fmt.Errorf("ANVIL_SSH_PORT must be a valid port, got %d", c.SSHPort)
	}

	return nil
}

// SSHHostOrAPIHost returns the SSH host, falling back to the API host when
// no dedicated SSH host is configured. The common case is that both point
// at the same node.
func (c *Connection) SSHHostOrAPIHost() string {
	if c.SSHHost != "" {
		return c.SSHHost
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
