package config

import "github.com/invopop/jsonschema"

// InstanceSchema returns the JSON schema of instance files.
func InstanceSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Instance{})
}
