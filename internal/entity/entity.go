// Package entity defines the records produced by the entity listing
// layer and the filter predicates applied before comparison.
package entity

// Record is a simplified listing entry for an organization, network, or
// device. Only the fields relevant to filtering and display are kept;
// devices additionally carry their model, product type, and owning
// network id.
type Record struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Tags         []string `json:"tags,omitempty"`
	Model        string   `json:"model,omitempty"`
	ProductType  string   `json:"productType,omitempty"`
	ProductTypes []string `json:"productTypes,omitempty"`
	NetworkID    string   `json:"networkId,omitempty"`
}

// DisplayName returns the name to key results by, falling back to the
// id when a record has no name.
func (r Record) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Predicate decides whether an entity participates in a comparison run.
type Predicate func(Record) bool

// All matches every record.
func All(Record) bool { return true }

// OrganizationAllowList keeps only organizations whose id appears in
// ids. An empty list matches everything.
func OrganizationAllowList(ids []string) Predicate {
	if len(ids) == 0 {
		return All
	}
	allowed := toSet(ids)
	return func(r Record) bool {
		_, ok := allowed[r.ID]
		return ok
	}
}

// NetworkFilter keeps networks carrying at least one of the given tags
// and, when productType is set, only networks offering that product.
func NetworkFilter(tags []string, productType string) Predicate {
	return func(r Record) bool {
		if len(tags) > 0 && !anyOverlap(r.Tags, tags) {
			return false
		}
		if productType != "" && !contains(r.ProductTypes, productType) {
			return false
		}
		return true
	}
}

// DeviceFilterOptions parameterizes device selection. NetworkTagsByID
// maps network ids to their tags so devices can be filtered by the tags
// of their owning network without re-fetching it.
type DeviceFilterOptions struct {
	Tags            []string
	Models          []string
	ProductTypes    []string
	NetworkTags     []string
	NetworkTagsByID map[string][]string
}

// DeviceFilter keeps devices matching every supplied allow-list: device
// tags, models, product types, and the tags of the owning network.
func DeviceFilter(opts DeviceFilterOptions) Predicate {
	return func(r Record) bool {
		if len(opts.Tags) > 0 && !anyOverlap(r.Tags, opts.Tags) {
			return false
		}
		if len(opts.Models) > 0 && !contains(opts.Models, r.Model) {
			return false
		}
		if len(opts.ProductTypes) > 0 {
			types := r.ProductTypes
			if len(types) == 0 && r.ProductType != "" {
				types = []string{r.ProductType}
			}
			if !anyOverlap(types, opts.ProductTypes) {
				return false
			}
		}
		if len(opts.NetworkTags) > 0 {
			networkTags := opts.NetworkTagsByID[r.NetworkID]
			if !anyOverlap(networkTags, opts.NetworkTags) {
				return false
			}
		}
		return true
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func anyOverlap(values, wanted []string) bool {
	set := toSet(values)
	for _, w := range wanted {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
