package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
{
	"title": "test_catalog_schema",
	"type": "object",
	"properties": {
		"ticks": { "type": "integer" }
	},
	"required": ["ticks"],
	"additionalProperties": false
}
`

const testCatalogYAML = "---\nticks: 10\n"

func TestSchemaValidator_Valid(t *testing.T) {
	schema, err := ParseSchema([]byte(testSchema))
	require.NoError(t, err)

	entries := []Entry{{
		Schema: SchemaRef{Namespace: "test", SchemaID: "test_schema"},
		Name:   "test_catalog",
		YAML:   testCatalogYAML,
	}}

	v := NewSchemaValidator(schema)
	require.NoError(t, Walk(entries, v))
	assert.NoError(t, v.Validate())
}

func TestSchemaValidator_MissingRequired(t *testing.T) {
	schema, err := ParseSchema([]byte(testSchema))
	require.NoError(t, err)

	entries := []Entry{{Name: "test_catalog", YAML: "---\nother: 1\n"}}
	v := NewSchemaValidator(schema)
	require.NoError(t, Walk(entries, v))
	assert.Error(t, v.Validate())
}

func TestNameValidator_RejectsUppercase(t *testing.T) {
	entries := []Entry{{Name: "Test_Catalog"}}
	v := NewNameValidator()
	require.NoError(t, Walk(entries, v))
	assert.Error(t, v.Validate())
}

func TestNameValidator_RejectsDuplicate(t *testing.T) {
	entries := []Entry{{Name: "a"}, {Name: "a"}}
	v := NewNameValidator()
	require.NoError(t, Walk(entries, v))
	assert.Error(t, v.Validate())
}

func TestNameValidator_AcceptsValid(t *testing.T) {
	entries := []Entry{{Name: "test_catalog"}, {Name: "another_one"}}
	v := NewNameValidator()
	require.NoError(t, Walk(entries, v))
	assert.NoError(t, v.Validate())
}
