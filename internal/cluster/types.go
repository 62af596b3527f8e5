// Package cluster provides read-only views of Proxmox cluster capacity and
// the limit resolution used to bound provisioning requests.
package cluster

import (
	"context"
	"strings"
)

// Node is a cluster node as reported by the cluster index. The Max* fields
// are the node-wide aggregates the cluster reports for quick comparisons;
// precise per-node limits come from NodeStatus.
//
// Nodes are point-in-time snapshots. They are fetched fresh on every query
// and must not be cached: disk availability in particular changes as disks
// are allocated.
type Node struct {
	Name         string
	MaxCPU       int
	MaxMemBytes  uint64
	MaxDiskBytes uint64
}

// NodeStatus is the live status of a single node.
type NodeStatus struct {
	// Sockets and Cores describe the physical CPU topology.
	Sockets int
	Cores   int
	// MemoryTotalBytes is the node's total physical memory.
	MemoryTotalBytes uint64
}

// Storage is a storage as reported by a node, including its backend type
// and the content classes it accepts.
type Storage struct {
	Name       string
	Type       string
	AvailBytes uint64
	Content    []string
}

// StoresImages reports whether the storage accepts VM disk images.
func (s Storage) StoresImages() bool {
	for _, c := range s.Content {
		if c == "images" {
			return true
		}
	}
	return false
}

// ParseContent splits the comma-separated content field the cluster API
// reports (e.g. "images,iso,rootdir") into its classes.
func ParseContent(content string) []string {
	if content == "" {
		return nil
	}
	parts := strings.Split(content, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// API is the read side of the cluster. It is defined here, consumer-side,
// so resolvers can be tested against mocks; in production it is satisfied
// by the Proxmox API client.
type API interface {
	// ListNodes returns all cluster nodes with their aggregate capacity.
	ListNodes(ctx context.Context) ([]Node, error)

	// NodeStatus returns the live status of one node.
	NodeStatus(ctx context.Context, node string) (NodeStatus, error)

	// ListStorages returns the storages attached to a node.
	ListStorages(ctx context.Context, node string) ([]Storage, error)

	// StorageStatus returns the live status of one storage on a node.
	StorageStatus(ctx context.Context, node, storage string) (Storage, error)
}
