package cluster

import (
	"context"
	"fmt"
)

// mockAPI is an in-memory cluster view for resolver tests.
type mockAPI struct {
	nodes    []Node
	statuses map[string]NodeStatus
	storages map[string][]Storage // node name -> storages
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		statuses: make(map[string]NodeStatus),
		storages: make(map[string][]Storage),
	}
}

func (m *mockAPI) ListNodes(_ context.Context) ([]Node, error) {
	return m.nodes, nil
}

func (m *mockAPI) NodeStatus(_ context.Context, node string) (NodeStatus, error) {
	status, ok := m.statuses[node]
	if !ok {
		return NodeStatus{}, fmt.Errorf("node not found: %s", node)
	}
	return status, nil
}

func (m *mockAPI) ListStorages(_ context.Context, node string) ([]Storage, error) {
	storages, ok := m.storages[node]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", node)
	}
	return storages, nil
}

func (m *mockAPI) StorageStatus(_ context.Context, node, storage string) (Storage, error) {
	for _, s := range m.storages[node] {
		if s.Name == storage {
			return s, nil
		}
	}
	return Storage{}, fmt.Errorf("storage not found: %s on node %s", storage, node)
}
