package entity

import "testing"

func TestDisplayName(t *testing.T) {
	if got := (Record{ID: "N_1", Name: "Branch"}).DisplayName(); got != "Branch" {
		t.Fatalf("got %q", got)
	}
	if got := (Record{ID: "N_1"}).DisplayName(); got != "N_1" {
		t.Fatalf("nameless record should fall back to id, got %q", got)
	}
}

func TestOrganizationAllowList(t *testing.T) {
	all := OrganizationAllowList(nil)
	if !all(Record{ID: "1"}) {
		t.Fatal("empty allow list must accept everything")
	}

	only := OrganizationAllowList([]string{"1", "3"})
	if !only(Record{ID: "1"}) || only(Record{ID: "2"}) {
		t.Fatal("allow list not applied")
	}
}

func TestNetworkFilter(t *testing.T) {
	net := Record{ID: "N_1", Tags: []string{"prod", "eu"}, ProductTypes: []string{"wireless", "switch"}}

	if !NetworkFilter(nil, "")(net) {
		t.Fatal("no constraints must accept")
	}
	if !NetworkFilter([]string{"prod"}, "")(net) {
		t.Fatal("tag overlap must accept")
	}
	if NetworkFilter([]string{"staging"}, "")(net) {
		t.Fatal("no tag overlap must reject")
	}
	if !NetworkFilter(nil, "wireless")(net) {
		t.Fatal("offered product type must accept")
	}
	if NetworkFilter(nil, "appliance")(net) {
		t.Fatal("missing product type must reject")
	}
	if NetworkFilter([]string{"prod"}, "appliance")(net) {
		t.Fatal("all constraints must hold")
	}
}

func TestDeviceFilter(t *testing.T) {
	dev := Record{
		ID: "Q234", Tags: []string{"core"}, Model: "MS250-48",
		ProductType: "switch", NetworkID: "N_1",
	}
	index := map[string][]string{"N_1": {"prod"}, "N_2": {"staging"}}

	if !DeviceFilter(DeviceFilterOptions{})(dev) {
		t.Fatal("no constraints must accept")
	}
	if !DeviceFilter(DeviceFilterOptions{Tags: []string{"core"}})(dev) {
		t.Fatal("device tag must accept")
	}
	if DeviceFilter(DeviceFilterOptions{Tags: []string{"edge"}})(dev) {
		t.Fatal("missing device tag must reject")
	}
	if !DeviceFilter(DeviceFilterOptions{Models: []string{"MS250-48"}})(dev) {
		t.Fatal("model must accept")
	}
	if DeviceFilter(DeviceFilterOptions{ProductTypes: []string{"wireless"}})(dev) {
		t.Fatal("wrong product type must reject")
	}
	if !DeviceFilter(DeviceFilterOptions{NetworkTags: []string{"prod"}, NetworkTagsByID: index})(dev) {
		t.Fatal("owning network tag must accept")
	}
	if DeviceFilter(DeviceFilterOptions{NetworkTags: []string{"staging"}, NetworkTagsByID: index})(dev) {
		t.Fatal("wrong network tag must reject")
	}
}
