package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullStep(t *testing.T) {
	step, err := Parse(`Web: Click button -field: loc.portal.login.submit -options: {timeout: 5000}`)
	require.NoError(t, err)

	assert.Equal(t, "Web", step.Namespace)
	assert.Equal(t, "Click", step.Action)
	assert.Equal(t, "button", step.FieldType)
	assert.Equal(t, "loc.portal.login.submit", step.Field)
	assert.Equal(t, "{timeout: 5000}", step.Options)
	assert.Empty(t, step.Value)
}

func TestParse_FieldAndValue(t *testing.T) {
	step, err := Parse(`Web: Fill input -field: #username -value: #{var.static.centre.code}`)
	require.NoError(t, err)

	assert.Equal(t, "Fill", step.Action)
	assert.Equal(t, "input", step.FieldType)
	assert.Equal(t, "#username", step.Field)
	assert.Equal(t, "#{var.static.centre.code}", step.Value)
}

func TestParse_NoFieldType(t *testing.T) {
	step, err := Parse(`Web: Navigate -value: https://example.com/login`)
	require.NoError(t, err)

	assert.Equal(t, "Navigate", step.Action)
	assert.Empty(t, step.FieldType)
	assert.Equal(t, "https://example.com/login", step.Value)
}

func TestParse_MultiWordAction(t *testing.T) {
	step, err := Parse(`Web: Wait For Text -field: .status -value: Ready`)
	require.NoError(t, err)

	assert.Equal(t, "Wait For Text", step.Action)
	assert.Equal(t, ".status", step.Field)
	assert.Equal(t, "Ready", step.Value)
}

func TestParse_TypeMarkerOverridesHead(t *testing.T) {
	step, err := Parse(`Web: Click -field: Save -type: link`)
	require.NoError(t, err)

	assert.Equal(t, "link", step.FieldType)
	assert.Equal(t, "Save", step.Field)
}

func TestParse_ValueKeepsInternalMarkersVerbatim(t *testing.T) {
	// A value containing a colon is not an argument marker.
	step, err := Parse(`Web: Fill -field: #url -value: https://example.com:8080/path`)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com:8080/path", step.Value)
}

func TestParse_OptionsWithRawLocator(t *testing.T) {
	step, err := Parse(`Web: Click button -field: Save -options: {locator: xpath=//div[@id='x'], timeout: 2000}`)
	require.NoError(t, err)
	assert.Equal(t, `{locator: xpath=//div[@id='x'], timeout: 2000}`, step.Options)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)

	_, err = Parse("   ")
	require.Error(t, err)

	_, err = Parse("no head marker here")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparseable step head")
}

func TestNormalizeAction(t *testing.T) {
	assert.Equal(t, "waitfortext", normalizeAction("Wait For Text"))
	assert.Equal(t, "click", normalizeAction("Click"))
	assert.Equal(t, "asserttext", normalizeAction("Assert Text"))
}
