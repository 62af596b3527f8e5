// Package proxmox adapts the Proxmox VE HTTP API to the narrow surfaces the
// rest of the tool consumes.
package proxmox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	px "github.com/luthermonson/go-proxmox"

	"github.com/cofront/anvil/internal/cluster"
)

// apiCaller is the minimal surface used from the underlying API client.
// It exists so the typed wrappers below can be tested without a live cluster.
type apiCaller interface {
	Get(ctx context.Context, path string, v interface{}) error
	Post(ctx context.Context, path string, d interface{}, v interface{}) error
	Put(ctx context.Context, path string, d interface{}, v interface{}) error
}

// Client wraps a Proxmox API connection. It satisfies cluster.API and adds
// the VM mutation calls used during provisioning.
type Client struct {
	api apiCaller
}

// Options carries the connection parameters for a Proxmox API endpoint.
// APIURL must point at the api2/json root, e.g. https://pve:8006/api2/json.
type Options struct {
	APIURL      string
	TokenID     string
	TokenSecret string
	InsecureTLS bool
}

// NewClient builds a Client authenticated with an API token.
func NewClient(opts Options) *Client {
	clientOpts := []px.Option{
		px.WithAPIToken(opts.TokenID, opts.TokenSecret),
	}
	if opts.InsecureTLS {
		clientOpts = append(clientOpts, px.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}))
	}
	return &Client{api: px.NewClient(opts.APIURL, clientOpts...)}
}

// The pve* types mirror the JSON shapes the Proxmox API returns. They stay
// private; callers only ever see the cluster package's types.

type pveNodeEntry struct {
	Node    string `json:"node"`
	MaxCPU  int    `json:"maxcpu"`
	MaxMem  uint64 `json:"maxmem"`
	MaxDisk uint64 `json:"maxdisk"`
}

type pveNodeStatus struct {
	CPUInfo struct {
		Cores   int `json:"cores"`
		Sockets int `json:"sockets"`
	} `json:"cpuinfo"`
	Memory struct {
		Total uint64 `json:"total"`
	} `json:"memory"`
}

type pveStorageEntry struct {
	Storage string `json:"storage"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Avail   uint64 `json:"avail"`
}

// ListNodes returns all cluster nodes with their aggregate capacity.
func (c *Client) ListNodes(ctx context.Context) ([]cluster.Node, error) {
	var resp []pveNodeEntry
	if err := c.api.Get(ctx, "/nodes", &resp); err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	nodes := make([]cluster.Node, 0, len(resp))
	for _, n := range resp {
		nodes = append(nodes, cluster.Node{
			Name:         n.Node,
			MaxCPU:       n.MaxCPU,
			MaxMemBytes:  n.MaxMem,
			MaxDiskBytes: n.MaxDisk,
		})
	}
	return nodes, nil
}

// NodeStatus returns the live status of one node.
func (c *Client) NodeStatus(ctx context.Context, node string) (cluster.NodeStatus, error) {
	var resp pveNodeStatus
	if err := c.api.Get(ctx, "/nodes/"+node+"/status", &resp); err != nil {
		return cluster.NodeStatus{}, fmt.Errorf("failed to get status of node %q: %w", node, err)
	}
	return cluster.NodeStatus{
		Sockets:          resp.CPUInfo.Sockets,
		Cores:            resp.CPUInfo.Cores,
		MemoryTotalBytes: resp.Memory.Total,
	}, nil
}

// ListStorages returns the storages attached to a node.
func (c *Client) ListStorages(ctx context.Context, node string) ([]cluster.Storage, error) {
	var resp []pveStorageEntry
	if err := c.api.Get(ctx, "/nodes/"+node+"/storage", &resp); err != nil {
		return nil, fmt.Errorf("failed to list storages of node %q: %w", node, err)
	}
	storages := make([]cluster.Storage, 0, len(resp))
	for _, s := range resp {
		storages = append(storages, cluster.Storage{
			Name:       s.Storage,
			Type:       s.Type,
			AvailBytes: s.Avail,
			Content:    cluster.ParseContent(s.Content),
		})
	}
	return storages, nil
}

// StorageStatus returns the live status of one storage on a node.
func (c *Client) StorageStatus(ctx context.Context, node, storage string) (cluster.Storage, error) {
	var resp pveStorageEntry
	path := "/nodes/" + node + "/storage/" + storage + "/status"
	if err := c.api.Get(ctx, path, &resp); err != nil {
		return cluster.Storage{}, fmt.Errorf("failed to get status of storage %q on node %q: %w", storage, node, err)
	}
	// The status endpoint omits the storage name; carry it over.
	return cluster.Storage{
		Name:       storage,
		Type:       resp.Type,
		AvailBytes: resp.Avail,
		Content:    cluster.ParseContent(resp.Content),
	}, nil
}

// CreateVMParams are the settings for a new, diskless VM.
type CreateVMParams struct {
	VMID     int
	Name     string
	Cores    int
	MemoryMB int
	Bridge   string
}

// CreateVM creates a stopped VM on the given node with no disks attached.
// Disks are bound afterwards via SetVMConfig once their volumes exist.
func (c *Client) CreateVM(ctx context.Context, node string, params CreateVMParams) error {
	body := map[string]interface{}{
		"vmid":    params.VMID,
		"name":    params.Name,
		"sockets": 1,
		"cores":   params.Cores,
		"memory":  params.MemoryMB,
		"net0":    "virtio,bridge=" + params.Bridge,
	}
	if err := c.api.Post(ctx, "/nodes/"+node+"/qemu", body, nil); err != nil {
		return fmt.Errorf("failed to create VM %d on node %q: %w", params.VMID, node, err)
	}
	return nil
}

// SetVMConfig applies configuration keys to an existing VM, for example
// binding an uploaded volume to a bus slot.
func (c *Client) SetVMConfig(ctx context.Context, node string, vmid int, options map[string]string) error {
	body := make(map[string]interface{}, len(options))
	for k, v := range options {
		body[k] = v
	}
	path := fmt.Sprintf("/nodes/%s/qemu/%d/config", node, vmid)
	if err := c.api.Put(ctx, path, body, nil); err != nil {
		return fmt.Errorf("failed to configure VM %d on node %q: %w", vmid, node, err)
	}
	return nil
}
