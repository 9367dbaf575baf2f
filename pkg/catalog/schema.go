package catalog

import (
	"encoding/json"
	"fmt"

	k8syaml "sigs.k8s.io/yaml"

	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

// Schema is a constrained draft-07 subset: the keywords PipeBuilder's
// catalog schemas actually exercise (type, required, properties,
// enum, minimum/maximum, oneOf, $ref into definitions). It is decoded
// straight off the JSON the catalog schema blob carries.
type Schema struct {
	Type                 string             `json:"type,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
	Enum                 []any              `json:"enum,omitempty"`
	Minimum              *float64           `json:"minimum,omitempty"`
	Maximum              *float64           `json:"maximum,omitempty"`
	OneOf                []*Schema          `json:"oneOf,omitempty"`
	Ref                  string             `json:"$ref,omitempty"`
	Definitions          map[string]*Schema `json:"definitions,omitempty"`
}

// ParseSchema decodes a JSON-Schema document.
func ParseSchema(raw []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, pberrors.Wrap(pberrors.KindInvalidRequest, "catalog: decode schema", err)
	}
	return &s, nil
}

// SchemaValidator compiles once against a Schema and then, per
// visited entry, converts the entry's YAML payload to JSON and
// validates it against that schema.
type SchemaValidator struct {
	schema *Schema
	errs   []string
}

func NewSchemaValidator(schema *Schema) *SchemaValidator {
	return &SchemaValidator{schema: schema}
}

func (v *SchemaValidator) Visit(e Entry) error {
	raw, err := k8syaml.YAMLToJSON([]byte(e.YAML))
	if err != nil {
		return pberrors.Wrap(pberrors.KindInvalidRequest, fmt.Sprintf("catalog: entry %q yaml decode", e.Name), err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return pberrors.Wrap(pberrors.KindInvalidRequest, fmt.Sprintf("catalog: entry %q json decode", e.Name), err)
	}
	for _, msg := range validate(v.schema, v.schema, instance, "$") {
		v.errs = append(v.errs, fmt.Sprintf("%s: %s", e.Name, msg))
	}
	return nil
}

func (v *SchemaValidator) Validate() error {
	if len(v.errs) == 0 {
		return nil
	}
	return pberrors.InvalidRequestf("catalog schema validation failed: %v", v.errs)
}

// validate walks instance against schema, resolving $ref against
// root.Definitions. path is the JSON-pointer-ish breadcrumb used in
// error messages.
func validate(root, schema *Schema, instance any, path string) []string {
	if schema == nil {
		return nil
	}
	if schema.Ref != "" {
		name := refName(schema.Ref)
		target, ok := root.Definitions[name]
		if !ok {
			return []string{fmt.Sprintf("%s: unresolved $ref %q", path, schema.Ref)}
		}
		return validate(root, target, instance, path)
	}
	if len(schema.OneOf) > 0 {
		matches := 0
		var last []string
		for _, alt := range schema.OneOf {
			if errs := validate(root, alt, instance, path); len(errs) == 0 {
				matches++
			} else {
				last = errs
			}
		}
		if matches == 1 {
			return nil
		}
		if matches == 0 {
			return last
		}
		return []string{fmt.Sprintf("%s: matched more than one oneOf branch", path)}
	}

	var errs []string
	switch schema.Type {
	case "object":
		obj, ok := instance.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object", path)}
		}
		for _, req := range schema.Required {
			if _, present := obj[req]; !present {
				errs = append(errs, fmt.Sprintf("%s: missing required property %q", path, req))
			}
		}
		if schema.AdditionalProperties != nil && !*schema.AdditionalProperties {
			for k := range obj {
				if _, declared := schema.Properties[k]; !declared {
					errs = append(errs, fmt.Sprintf("%s: additional property %q not allowed", path, k))
				}
			}
		}
		for k, propSchema := range schema.Properties {
			v, present := obj[k]
			if !present {
				continue
			}
			errs = append(errs, validate(root, propSchema, v, path+"."+k)...)
		}
	case "integer", "number":
		num, ok := toFloat64(instance)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: expected number", path))
			break
		}
		if schema.Minimum != nil && num < *schema.Minimum {
			errs = append(errs, fmt.Sprintf("%s: %v below minimum %v", path, num, *schema.Minimum))
		}
		if schema.Maximum != nil && num > *schema.Maximum {
			errs = append(errs, fmt.Sprintf("%s: %v above maximum %v", path, num, *schema.Maximum))
		}
	case "string":
		if _, ok := instance.(string); !ok {
			errs = append(errs, fmt.Sprintf("%s: expected string", path))
		}
	case "boolean":
		if _, ok := instance.(bool); !ok {
			errs = append(errs, fmt.Sprintf("%s: expected boolean", path))
		}
	}

	if len(schema.Enum) > 0 && !enumContains(schema.Enum, instance) {
		errs = append(errs, fmt.Sprintf("%s: value not one of enum", path))
	}
	return errs
}

func refName(ref string) string {
	const prefix = "#/definitions/"
	if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):]
	}
	return ref
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if fmt.Sprint(e) == fmt.Sprint(v) {
			return true
		}
	}
	return false
}
