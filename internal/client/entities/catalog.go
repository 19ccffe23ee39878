// Package entities declares the admin entity types: their REST collection,
// local store layout and secondary indexes, plus helpers composing them.
package entities

import "github.com/dmitrijs2005/admindata/internal/client/localstore"

// Entity describes one entity type. Name is both the REST collection and the
// local store name.
type Entity struct {
	Name   string
	Schema localstore.Schema
}

func entity(name string, indexes ...localstore.IndexDef) Entity {
	return Entity{Name: name, Schema: localstore.Schema{Name: name, Indexes: indexes}}
}

// Index names.
const (
	ByCode       = "by_code"
	ByCountryID  = "by_country_id"
	ByProvinceID = "by_province_id"
	ByEmail      = "by_email"
	ByCustomerID = "by_customer_id"
	ByStatus     = "by_status"
)

var (
	Countries = entity("countries",
		localstore.IndexDef{Name: ByCode, Field: "code"},
	)
	Provinces = entity("provinces",
		localstore.IndexDef{Name: ByCountryID, Field: "countryId"},
	)
	Cities = entity("cities",
		localstore.IndexDef{Name: ByCountryID, Field: "countryId"},
		localstore.IndexDef{Name: ByProvinceID, Field: "provinceId"},
	)
	Customers = entity("customers",
		localstore.IndexDef{Name: ByEmail, Field: "email"},
	)
	WarehouseOrders = entity("warehouse_orders",
		localstore.IndexDef{Name: ByCustomerID, Field: "customerId"},
		localstore.IndexDef{Name: ByStatus, Field: "status"},
	)
)

// All lists every entity type.
func All() []Entity {
	return []Entity{Countries, Provinces, Cities, Customers, WarehouseOrders}
}

// Lookup finds an entity by name.
func Lookup(name string) (Entity, bool) {
	for _, e := range All() {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}
