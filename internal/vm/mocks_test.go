package vm

import (
	"context"
	"fmt"

	"github.com/cofront/anvil/internal/backend"
	"github.com/cofront/anvil/internal/cluster"
	"github.com/cofront/anvil/internal/proxmox"
)

// appliedConfig records one SetVMConfig call.
type appliedConfig struct {
	node    string
	vmid    int
	options map[string]string
}

// mockCluster implements clusterAPI for testing.
type mockCluster struct {
	// storage returned by StorageStatus
	storage    cluster.Storage
	storageErr error

	created   []proxmox.CreateVMParams
	createErr error

	configs   []appliedConfig
	configErr error
}

func (m *mockCluster) StorageStatus(_ context.Context, _, _ string) (cluster.Storage, error) {
	if m.storageErr != nil {
		return cluster.Storage{}, m.storageErr
	}
	return m.storage, nil
}

func (m *mockCluster) CreateVM(_ context.Context, _ string, params proxmox.CreateVMParams) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, params)
	return nil
}

func (m *mockCluster) SetVMConfig(_ context.Context, node string, vmid int, options map[string]string) error {
	if m.configErr != nil {
		return m.configErr
	}
	m.configs = append(m.configs, appliedConfig{node: node, vmid: vmid, options: options})
	return nil
}

// mockLimits implements limitResolver with fixed ceilings.
type mockLimits struct {
	cpu    int
	memMB  int64
	diskGB int64
	err    error
}

func (m *mockLimits) MaxCPU(_ context.Context, _ string) (int, error) {
	return m.cpu, m.err
}

func (m *mockLimits) MaxMemoryMB(_ context.Context, _ string) (int64, error) {
	return m.memMB, m.err
}

func (m *mockLimits) MaxDiskSizeGB(_ context.Context, _, _ string) (int64, error) {
	return m.diskGB, m.err
}

// uploadCall records one Upload call.
type uploadCall struct {
	storage   string
	vmid      int
	localPath string
	format    backend.Format
	label     string
	sizeKB    int64
}

// mockUploader implements diskUploader, returning a volume ID derived from
// the label. failLabel makes the upload with that label fail.
type mockUploader struct {
	calls     []uploadCall
	failLabel string
}

func (m *mockUploader) Upload(_ context.Context, storage cluster.Storage, vmid int, localPath string, format backend.Format, label string, sizeKB int64) (string, error) {
	if label == m.failLabel {
		return "", fmt.Errorf("upload of %q failed", label)
	}
	m.calls = append(m.calls, uploadCall{
		storage:   storage.Name,
		vmid:      vmid,
		localPath: localPath,
		format:    format,
		label:     label,
		sizeKB:    sizeKB,
	})
	return fmt.Sprintf("%s:%d/vm-%d-%s.%s", storage.Name, vmid, vmid, label, format), nil
}
