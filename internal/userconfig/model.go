package userconfig

import "encoding/json"

// Configuration is a single named value.
type Configuration struct {
	Name  string          `json:"name"  bson:"name"`
	Value json.RawMessage `json:"value" bson:"value"`
}

// Module groups the configurations of one application module.
type Module struct {
	Name           string          `json:"name"           bson:"name"`
	Configurations []Configuration `json:"configurations" bson:"configurations"`
}

// Configurations is the module list returned to clients.
type Configurations struct {
	Modules []Module `json:"modules"`
}

// find returns the value of module/name in modules.
func find(modules []Module, module, name string) (json.RawMessage, bool) {
	for _, m := range modules {
		if m.Name != module {
			continue
		}
		for _, c := range m.Configurations {
			if c.Name == name {
				return c.Value, true
			}
		}
	}
	return nil, false
}

// put sets module/name to value, appending the module or configuration as needed.
func put(modules []Module, module, name string, value json.RawMessage) []Module {
	for i := range modules {
		if modules[i].Name != module {
			continue
		}
		for j := range modules[i].Configurations {
			if modules[i].Configurations[j].Name == name {
				modules[i].Configurations[j].Value = value
				return modules
			}
		}
		modules[i].Configurations = append(modules[i].Configurations, Configuration{Name: name, Value: value})
		return modules
	}
	return append(modules, Module{
		Name:           module,
		Configurations: []Configuration{{Name: name, Value: value}},
	})
}

// merge overlays override onto base. Neither input is modified.
func merge(base, override []Module) []Module {
	out := make([]Module, 0, len(base))
	for _, m := range base {
		out = append(out, Module{
			Name:           m.Name,
			Configurations: append([]Configuration(nil), m.Configurations...),
		})
	}
	for _, m := range override {
		for _, c := range m.Configurations {
			out = put(out, m.Name, c.Name, c.Value)
		}
	}
	return out
}
