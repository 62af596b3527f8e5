// Package output provides formatters for displaying cluster resources
// in various formats (table, YAML, JSON).
package output

import (
	"fmt"
	"strings"

	"github.com/cofront/anvil/internal/cluster"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format for declarative configs.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// NodeRow is the presentation shape of one cluster node.
type NodeRow struct {
	Name         string `json:"name" yaml:"name"`
	MaxCPU       int    `json:"max_cpu" yaml:"max_cpu"`
	MaxMemBytes  uint64 `json:"max_mem_bytes" yaml:"max_mem_bytes"`
	MaxDiskBytes uint64 `json:"max_disk_bytes" yaml:"max_disk_bytes"`
}

// StorageRow is the presentation shape of one storage.
type StorageRow struct {
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"type" yaml:"type"`
	AvailBytes uint64   `json:"avail_bytes" yaml:"avail_bytes"`
	Content    []string `json:"content" yaml:"content"`
}

// Limits is the presentation shape of resolved resource limits. Storage
// and MaxDiskGB are only populated when a storage was part of the query.
type Limits struct {
	Node        string `json:"node" yaml:"node"`
	MaxCPU      int    `json:"max_cpu" yaml:"max_cpu"`
	MaxMemoryMB int    `json:"max_memory_mb" yaml:"max_memory_mb"`
	Storage     string `json:"storage,omitempty" yaml:"storage,omitempty"`
	MaxDiskGB   int    `json:"max_disk_gb,omitempty" yaml:"max_disk_gb,omitempty"`
}

// NodeRows converts cluster nodes to their presentation shape.
func NodeRows(nodes []cluster.Node) []NodeRow {
	rows := make([]NodeRow, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, NodeRow{
			Name:         n.Name,
			MaxCPU:       n.MaxCPU,
			MaxMemBytes:  n.MaxMemBytes,
			MaxDiskBytes: n.MaxDiskBytes,
		})
	}
	return rows
}

// StorageRows converts storages to their presentation shape.
func StorageRows(storages []cluster.Storage) []StorageRow {
	rows := make([]StorageRow, 0, len(storages))
	for _, s := range storages {
		rows = append(rows, StorageRow{
			Name:       s.Name,
			Type:       s.Type,
			AvailBytes: s.AvailBytes,
			Content:    s.Content,
		})
	}
	return rows
}

// Formatter formats cluster resources for output.
type Formatter interface {
	// FormatNodes formats a list of cluster nodes.
	FormatNodes(nodes []NodeRow) (string, error)

	// FormatStorages formats a list of storages.
	FormatStorages(storages []StorageRow) (string, error)

	// FormatLimits formats resolved resource limits.
	FormatLimits(limits Limits) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}

// formatBytes formats a byte count as a human-readable size.
// Examples: "512 B", "16.0 GiB", "1.5 TiB"
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// formatContent joins content classes for display.
func formatContent(content []string) string {
	if len(content) == 0 {
		return "-"
	}
	return strings.Join(content, ",")
}
