package dashboard

import (
	"context"
	"fmt"

	"github.com/driftwatch/drift/internal/registry"
)

// FetchOperation resolves a named fetch operation. entityID selects the
// network or device; organization-scope operations ignore it and use
// the client's configured organization.
//
// Volatile fields that change on every fetch but carry no configuration
// meaning are stripped here, before the snapshot is stored or compared:
// admins lose lastActive, organization settings lose id, name, and url.
func (c *Client) FetchOperation(ctx context.Context, fetchOp string, entityID string) (any, error) {
	switch fetchOp {
	case registry.FetchOrganizationAdmins:
		var admins []map[string]any
		if err := c.get(ctx, "/organizations/"+c.orgID+"/admins", &admins); err != nil {
			return nil, err
		}
		out := make([]any, len(admins))
		for i, admin := range admins {
			delete(admin, "lastActive")
			out[i] = admin
		}
		return out, nil

	case registry.FetchOrganizationSettings:
		var settings map[string]any
		if err := c.get(ctx, "/organizations/"+c.orgID, &settings); err != nil {
			return nil, err
		}
		delete(settings, "id")
		delete(settings, "name")
		delete(settings, "url")
		return settings, nil

	case registry.FetchNetworkSSIDs:
		var ssids []any
		if err := c.get(ctx, "/networks/"+entityID+"/wireless/ssids", &ssids); err != nil {
			return nil, err
		}
		return ssids, nil

	case registry.FetchNetworkSettings:
		var settings map[string]any
		if err := c.get(ctx, "/networks/"+entityID+"/settings", &settings); err != nil {
			return nil, err
		}
		return settings, nil

	case registry.FetchDeviceSwitchPorts:
		var ports []any
		if err := c.get(ctx, "/devices/"+entityID+"/switch/ports", &ports); err != nil {
			return nil, err
		}
		return ports, nil

	case registry.FetchDeviceManagement:
		var iface map[string]any
		if err := c.get(ctx, "/devices/"+entityID+"/managementInterface", &iface); err != nil {
			return nil, err
		}
		return iface, nil

	default:
		return nil, fmt.Errorf("unknown fetch operation %q", fetchOp)
	}
}
