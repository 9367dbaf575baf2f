// Package catalog validates the catalog entries a project's
// catalogs.yml manifest declares: each entry pairs a named YAML
// configuration blob with the schema it must conform to. Validation
// runs as two independent visitor passes over the whole entry list so
// every offending entry is reported in one response instead of
// failing fast on the first.
package catalog

// SchemaRef names the catalog schema an entry's yml must validate
// against. Catalog schemas are shared within a namespace regardless of
// which project references them.
type SchemaRef struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	SchemaID  string `json:"schema_id" yaml:"schema_id"`
}

// Entry is one named catalog configuration within a catalogs.yml
// manifest.
type Entry struct {
	Schema SchemaRef `json:"schema" yaml:"schema"`
	Name   string    `json:"name" yaml:"name"`
	YAML   string    `json:"yml" yaml:"yml"`
}

// Visitor observes every entry in a catalog list in order. A Visitor
// that also wants to report errors after the walk implements
// Validator.
type Visitor interface {
	Visit(e Entry) error
}

// Validator is a Visitor that aggregates everything it saw across the
// whole walk and reports it as a single error from Validate.
type Validator interface {
	Visitor
	Validate() error
}

// Walk runs v.Visit over every entry, stopping at the first error a
// visit itself returns (decode-time failures, not validation
// failures -- those only surface from Validate).
func Walk(entries []Entry, v Visitor) error {
	for _, e := range entries {
		if err := v.Visit(e); err != nil {
			return err
		}
	}
	return nil
}
