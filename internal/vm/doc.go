// Package vm provides high-level VM provisioning operations.
//
// This package orchestrates the various low-level components (config,
// cluster, upload, cloudinit) to provision a VM on a Proxmox node: it
// validates the request against live node limits, creates the VM, uploads
// the base image into a new volume, and attaches a cloud-init seed ISO.
//
// Error Handling:
//
// Provisioning does not roll back. A failed step leaves everything created
// so far (the VM entry, allocated volumes, staged files) in place for
// inspection; the operator decides whether to retry or clean up. Failures
// carry the remote command output where one is involved.
//
// Context Support:
//
// All operations accept a context.Context for cancellation support.
package vm
