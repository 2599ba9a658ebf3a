package dashboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch/drift/internal/apicache"
	"github.com/driftwatch/drift/internal/entity"
	"github.com/driftwatch/drift/internal/registry"
)

// ListEntities enumerates the entities of a scope as simplified
// records: organizations across the account, or the networks and
// devices of the client's organization. Listings are served from the
// cache when one is configured and fresh enough.
func (c *Client) ListEntities(ctx context.Context, scope registry.Scope) ([]entity.Record, error) {
	if cached := c.cachedListing(scope); cached != nil {
		return cached, nil
	}

	var records []entity.Record
	switch scope {
	case registry.ScopeOrganization:
		var orgs []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := c.get(ctx, "/organizations", &orgs); err != nil {
			return nil, err
		}
		for _, o := range orgs {
			records = append(records, entity.Record{ID: o.ID, Name: o.Name})
		}

	case registry.ScopeNetwork:
		var nets []struct {
			ID           string   `json:"id"`
			Name         string   `json:"name"`
			Tags         []string `json:"tags"`
			ProductTypes []string `json:"productTypes"`
		}
		if err := c.get(ctx, "/organizations/"+c.orgID+"/networks", &nets); err != nil {
			return nil, err
		}
		for _, n := range nets {
			records = append(records, entity.Record{ID: n.ID, Name: n.Name, Tags: n.Tags, ProductTypes: n.ProductTypes})
		}

	case registry.ScopeDevice:
		var devs []struct {
			Serial      string   `json:"serial"`
			Name        string   `json:"name"`
			Tags        []string `json:"tags"`
			Model       string   `json:"model"`
			ProductType string   `json:"productType"`
			NetworkID   string   `json:"networkId"`
		}
		if err := c.get(ctx, "/organizations/"+c.orgID+"/devices", &devs); err != nil {
			return nil, err
		}
		for _, d := range devs {
			records = append(records, entity.Record{
				ID: d.Serial, Name: d.Name, Tags: d.Tags,
				Model: d.Model, ProductType: d.ProductType, NetworkID: d.NetworkID,
			})
		}

	default:
		return nil, fmt.Errorf("unknown scope %q", scope)
	}

	c.storeListing(scope, records)
	return records, nil
}

// NetworkTagIndex returns a network id → tags mapping, used to filter
// devices by the tags of their owning network.
func (c *Client) NetworkTagIndex(ctx context.Context) (map[string][]string, error) {
	networks, err := c.ListEntities(ctx, registry.ScopeNetwork)
	if err != nil {
		return nil, fmt.Errorf("listing networks for tag index: %w", err)
	}

	index := make(map[string][]string, len(networks))
	for _, n := range networks {
		index[n.ID] = n.Tags
	}
	return index, nil
}

func (c *Client) cachedListing(scope registry.Scope) []entity.Record {
	if c.cacheRoot == "" {
		return nil
	}
	cached, err := apicache.Get(c.cacheRoot, string(scope), c.orgID, c.cacheTTL)
	if err != nil || cached == nil {
		return nil
	}
	var records []entity.Record
	if err := json.Unmarshal(cached.Payload, &records); err != nil {
		c.log.WithError(err).Warn("discarding unreadable cached listing")
		return nil
	}
	c.log.WithFields(logrus.Fields{"scope": scope, "count": len(records)}).Debug("using cached entity listing")
	return records
}

func (c *Client) storeListing(scope registry.Scope, records []entity.Record) {
	if c.cacheRoot == "" {
		return
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return
	}
	entry := &apicache.Entry{Scope: string(scope), OrgID: c.orgID, Payload: payload}
	if err := apicache.Put(c.cacheRoot, entry); err != nil {
		c.log.WithError(err).Warn("failed to cache entity listing")
	}
}
