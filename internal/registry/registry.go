// Package registry describes the data operations the tool knows how to
// snapshot and compare. An Operation is a plain serializable descriptor
// that references a named fetch operation; the live API client is
// injected behind the Fetcher interface, so descriptors can be listed,
// stored, and tested without a client.
package registry

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scope is the level an operation applies to.
type Scope string

const (
	ScopeOrganization Scope = "organization"
	ScopeNetwork      Scope = "network"
	ScopeDevice       Scope = "device"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeOrganization, ScopeNetwork, ScopeDevice:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope %q (expected organization, network, or device)", s)
	}
}

// Folder returns the snapshot-store folder for a scope.
func (s Scope) Folder() string {
	return string(s)
}

// Operation describes one snapshot/compare target.
type Operation struct {
	// Name is the unique operation name within its scope.
	Name string `json:"name" yaml:"name"`
	// DisplayName is the human-facing label.
	DisplayName string `json:"display_name" yaml:"display_name"`
	Scope       Scope  `json:"scope" yaml:"scope"`
	// Folder is the per-operation subdirectory in the snapshot store.
	Folder string `json:"folder" yaml:"folder"`
	// FileName is the base name of saved snapshot files.
	FileName string `json:"file_name" yaml:"file_name"`
	// GroupBy matches sequence elements by this field instead of by
	// position during comparison. Empty means positional/unordered.
	GroupBy string `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	// ProductType restricts network-scope operations to networks
	// offering the product.
	ProductType string `json:"product_type,omitempty" yaml:"product_type,omitempty"`
	// FetchOp names the fetch operation the injected Fetcher resolves.
	FetchOp string `json:"fetch_op" yaml:"fetch_op"`
}

// Fetcher resolves a named fetch operation against the live API.
// entityID selects the entity to fetch for; organization-scope
// operations accept an empty id and use the client's configured
// organization.
type Fetcher interface {
	FetchOperation(ctx context.Context, fetchOp string, entityID string) (any, error)
}

// Fetch operation names understood by the dashboard client.
const (
	FetchOrganizationAdmins   = "organization.admins"
	FetchOrganizationSettings = "organization.settings"
	FetchNetworkSSIDs         = "network.ssids"
	FetchNetworkSettings      = "network.settings"
	FetchDeviceSwitchPorts    = "device.switchPorts"
	FetchDeviceManagement     = "device.managementInterface"
)

// Registry holds the known operations.
type Registry struct {
	ops []Operation
}

// New returns a registry populated with the built-in operations.
func New() *Registry {
	return &Registry{ops: builtinOperations()}
}

func builtinOperations() []Operation {
	return []Operation{
		{
			Name:        "admins",
			DisplayName: "Organization administrators",
			Scope:       ScopeOrganization,
			Folder:      "admins",
			FileName:    "admins",
			GroupBy:     "email",
			FetchOp:     FetchOrganizationAdmins,
		},
		{
			Name:        "settings",
			DisplayName: "Organization settings",
			Scope:       ScopeOrganization,
			Folder:      "settings",
			FileName:    "settings",
			FetchOp:     FetchOrganizationSettings,
		},
		{
			Name:        "ssids",
			DisplayName: "Wireless SSIDs",
			Scope:       ScopeNetwork,
			Folder:      "ssids",
			FileName:    "ssids",
			GroupBy:     "name",
			ProductType: "wireless",
			FetchOp:     FetchNetworkSSIDs,
		},
		{
			Name:        "settings",
			DisplayName: "Network settings",
			Scope:       ScopeNetwork,
			Folder:      "settings",
			FileName:    "settings",
			FetchOp:     FetchNetworkSettings,
		},
		{
			Name:        "switch-ports",
			DisplayName: "Switch ports",
			Scope:       ScopeDevice,
			Folder:      "switch-ports",
			FileName:    "switch-ports",
			GroupBy:     "portId",
			ProductType: "switch",
			FetchOp:     FetchDeviceSwitchPorts,
		},
		{
			Name:        "management-interface",
			DisplayName: "Device management interface",
			Scope:       ScopeDevice,
			Folder:      "management-interface",
			FileName:    "management-interface",
			FetchOp:     FetchDeviceManagement,
		},
	}
}

// Lookup finds an operation by scope and name.
func (r *Registry) Lookup(scope Scope, name string) (Operation, bool) {
	for _, op := range r.ops {
		if op.Scope == scope && op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// ByScope returns all operations for a scope, in registration order.
func (r *Registry) ByScope(scope Scope) []Operation {
	var out []Operation
	for _, op := range r.ops {
		if op.Scope == scope {
			out = append(out, op)
		}
	}
	return out
}

// All returns every registered operation.
func (r *Registry) All() []Operation {
	return append([]Operation(nil), r.ops...)
}

// Merge adds or replaces operations. An operation with the same scope
// and name as an existing one replaces it.
func (r *Registry) Merge(ops []Operation) {
	for _, op := range ops {
		replaced := false
		for i := range r.ops {
			if r.ops[i].Scope == op.Scope && r.ops[i].Name == op.Name {
				r.ops[i] = op
				replaced = true
				break
			}
		}
		if !replaced {
			r.ops = append(r.ops, op)
		}
	}
}

// LoadFile merges operations from a YAML file. A missing file is not an
// error, so the overlay is optional.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading operations file: %w", err)
	}

	var file struct {
		Operations []Operation `yaml:"operations"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing operations file %s: %w", path, err)
	}

	for i, op := range file.Operations {
		if op.Name == "" || op.FetchOp == "" {
			return fmt.Errorf("operations file %s: entry %d missing name or fetch_op", path, i)
		}
		if _, err := ParseScope(string(op.Scope)); err != nil {
			return fmt.Errorf("operations file %s: entry %q: %w", path, op.Name, err)
		}
		if op.Folder == "" {
			file.Operations[i].Folder = op.Name
		}
		if op.FileName == "" {
			file.Operations[i].FileName = op.Name
		}
	}

	r.Merge(file.Operations)
	return nil
}
