package features

import (
	"encoding/json"
	"time"
)

// Configuration is a single named feature value.
type Configuration struct {
	Name  string          `json:"name"  bson:"name"`
	Value json.RawMessage `json:"value" bson:"value"`
}

// Module groups the feature values of one application module.
type Module struct {
	Name           string          `json:"name"           bson:"name"`
	Configurations []Configuration `json:"configurations" bson:"configurations"`
}

// Features is the feature set enabled for a domain.
type Features struct {
	DomainID  string    `json:"domain_id"  bson:"domain_id"`
	Modules   []Module  `json:"modules"    bson:"modules"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Module returns the named module, or nil when the domain does not configure it.
func (f *Features) Module(name string) *Module {
	for i := range f.Modules {
		if f.Modules[i].Name == name {
			return &f.Modules[i]
		}
	}
	return nil
}
