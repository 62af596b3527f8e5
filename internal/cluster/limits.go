package cluster

import (
	"context"
	"fmt"
)

const (
	mib = 1024 * 1024
	gib = 1024 * 1024 * 1024
)

// Limits resolves the resource bounds a provisioning request must fall
// within. Every call queries the cluster live; nothing is cached.
//
// CPU and memory limits are physical host ceilings (total capacity), while
// the disk limit reflects what is currently *available* on a storage: disk
// is the consumable resource, the others are hard hardware bounds.
type Limits struct {
	api API
}

// NewLimits creates a limit resolver over the given cluster API.
func NewLimits(api API) *Limits {
	return &Limits{api: api}
}

// MaxCPU returns the maximum number of CPUs a VM may be given.
//
// With a node: that node's physical capacity, sockets × cores. Without a
// node (empty string): the minimum of the per-node aggregates, a universal
// ceiling that is safe before a node has been chosen.
func (l *Limits) MaxCPU(ctx context.Context, node string) (int, error) {
	if node != "" {
		status, err := l.api.NodeStatus(ctx, node)
		if err != nil {
			return 0, fmt.Errorf("failed to get status of node %s: %w", node, err)
		}
		return status.Sockets * status.Cores, nil
	}

	nodes, err := l.api.ListNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list nodes: %w", err)
	}
	if len(nodes) == 0 {
		return 0, fmt.Errorf("cluster reports no nodes")
	}

	min := nodes[0].MaxCPU
	for _, n := range nodes[1:] {
		if n.MaxCPU < min {
			min = n.MaxCPU
		}
	}
	return min, nil
}

// MaxMemoryMB returns the maximum memory, in megabytes, a VM may be given.
// Semantics mirror MaxCPU: per-node total when a node is named, cross-node
// minimum otherwise. Byte values are floor-divided to MB.
func (l *Limits) MaxMemoryMB(ctx context.Context, node string) (int64, error) {
	if node != "" {
		status, err := l.api.NodeStatus(ctx, node)
		if err != nil {
			return 0, fmt.Errorf("failed to get status of node %s: %w", node, err)
		}
		return int64(status.MemoryTotalBytes / mib), nil
	}

	nodes, err := l.api.ListNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list nodes: %w", err)
	}
	if len(nodes) == 0 {
		return 0, fmt.Errorf("cluster reports no nodes")
	}

	min := int64(nodes[0].MaxMemBytes / mib)
	for _, n := range nodes[1:] {
		if mb := int64(n.MaxMemBytes / mib); mb < min {
			min = mb
		}
	}
	return min, nil
}

// MaxDiskSizeGB returns the maximum disk size, in gigabytes, a VM disk may
// be given.
//
// Node and storage go together: with both, the limit is the named storage's
// currently available space on that node; with neither, the cross-node
// minimum of the aggregate disk capacity. Naming a node without a storage
// (or a storage without a node) is a caller error.
func (l *Limits) MaxDiskSizeGB(ctx context.Context, node, storage string) (int64, error) {
	switch {
	case node != "" && storage == "":
		return 0, fmt.Errorf("a storage must also be specified for node %s", node)
	case node == "" && storage != "":
		return 0, fmt.Errorf("a node must also be specified for storage %s", storage)
	case node != "":
		st, err := l.api.StorageStatus(ctx, node, storage)
		if err != nil {
			return 0, fmt.Errorf("failed to get status of storage %s on node %s: %w", storage, node, err)
		}
		return int64(st.AvailBytes / gib), nil
	}

	nodes, err := l.api.ListNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list nodes: %w", err)
	}
	if len(nodes) == 0 {
		return 0, fmt.Errorf("cluster reports no nodes")
	}

	min := int64(nodes[0].MaxDiskBytes / gib)
	for _, n := range nodes[1:] {
		if gb := int64(n.MaxDiskBytes / gib); gb < min {
			min = gb
		}
	}
	return min, nil
}

// ListImageStorages returns the storages on a node that can hold VM disk
// images. Storages without the "images" content class are filtered out.
func (l *Limits) ListImageStorages(ctx context.Context, node string) ([]Storage, error) {
	storages, err := l.api.ListStorages(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("failed to list storages on node %s: %w", node, err)
	}

	var out []Storage
	for _, s := range storages {
		if s.StoresImages() {
			out = append(out, s)
		}
	}
	return out, nil
}
