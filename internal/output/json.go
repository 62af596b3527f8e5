package output

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter formats resources as JSON.
type JSONFormatter struct{}

// FormatNodes formats a list of cluster nodes as a JSON array.
func (f *JSONFormatter) FormatNodes(nodes []NodeRow) (string, error) {
	if len(nodes) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal nodes to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// FormatStorages formats a list of storages as a JSON array.
func (f *JSONFormatter) FormatStorages(storages []StorageRow) (string, error) {
	if len(storages) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(storages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal storages to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// FormatLimits formats resolved resource limits as a JSON object.
func (f *JSONFormatter) FormatLimits(limits Limits) (string, error) {
	data, err := json.MarshalIndent(limits, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal limits to JSON: %w", err)
	}
	return string(data) + "\n", nil
}
