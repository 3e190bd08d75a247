package locator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
	"github.com/ternarybob/playq/internal/vars"
)

// fakeHandle records the selector it was created for.
type fakeHandle struct {
	selector string
}

func (h *fakeHandle) Selector() string                         { return h.selector }
func (h *fakeHandle) Click(ctx context.Context) error          { return nil }
func (h *fakeHandle) Fill(ctx context.Context, _ string) error { return nil }
func (h *fakeHandle) Check(ctx context.Context, _ bool) error  { return nil }
func (h *fakeHandle) Hover(ctx context.Context) error          { return nil }
func (h *fakeHandle) Count(ctx context.Context) (int, error)   { return 0, nil }
func (h *fakeHandle) IsVisible(ctx context.Context) (bool, error) {
	return false, nil
}
func (h *fakeHandle) InnerText(ctx context.Context) (string, error) {
	return "", nil
}
func (h *fakeHandle) GetAttribute(ctx context.Context, name string) (string, error) {
	return "", nil
}
func (h *fakeHandle) WaitFor(ctx context.Context, state interfaces.ElementState, timeout time.Duration) error {
	return nil
}
func (h *fakeHandle) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }

// fakeDriver hands out fakeHandles and remembers the last selector asked for.
type fakeDriver struct {
	lastSelector string
}

func (d *fakeDriver) Locator(selector string) interfaces.Handle {
	d.lastSelector = selector
	return &fakeHandle{selector: selector}
}
func (d *fakeDriver) Navigate(ctx context.Context, url string) error { return nil }
func (d *fakeDriver) URL(ctx context.Context) (string, error)        { return "", nil }
func (d *fakeDriver) Title(ctx context.Context) (string, error)      { return "", nil }
func (d *fakeDriver) HTML(ctx context.Context) (string, error)       { return "", nil }
func (d *fakeDriver) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }
func (d *fakeDriver) Close() error                                   { return nil }

// stubEngine is a scriptable delegated matching engine.
type stubEngine struct {
	handle  interfaces.Handle
	err     error
	lastReq interfaces.MatchRequest
	calls   int
}

func (e *stubEngine) Resolve(ctx context.Context, driver interfaces.Driver, req interfaces.MatchRequest) (interfaces.Handle, error) {
	e.calls++
	e.lastReq = req
	return e.handle, e.err
}

func testResolver(t *testing.T, config *common.Config) (*Resolver, *fakeDriver, *Registry, *vars.Store) {
	t.Helper()
	if config == nil {
		config = common.NewDefaultConfig()
	}
	driver := &fakeDriver{}
	store := vars.NewStore(arbor.NewLogger())
	registry := NewRegistry()
	files := NewFileNamespace(t.TempDir(), store)
	return NewResolver(driver, store, registry, files, config, arbor.NewLogger()), driver, registry, store
}

func TestResolve_NoCheckReturnsNilHandle(t *testing.T) {
	resolver, _, _, _ := testResolver(t, nil)

	// The escape hatch short-circuits every other strategy, whatever the
	// selector looks like.
	for _, selector := range []string{"xpath=//div", "loc.a.b.c", "Submit"} {
		handle, err := resolver.Resolve(context.Background(), Request{
			Selector: selector,
			Pattern:  NoCheckToken,
		})
		require.NoError(t, err)
		assert.Nil(t, handle, "selector %q", selector)
	}
}

func TestResolve_EnginePrefix(t *testing.T) {
	resolver, _, _, _ := testResolver(t, nil)

	tests := []struct {
		selector string
		want     string
	}{
		{"xpath=//button[@id='go']", "//button[@id='go']"},
		{" CSS = .btn.primary ", ".btn.primary"},
		{"chain=div.panel >> //a[1]", "div.panel >> //a[1]"},
		{`xpath=//input[@name=\"q\"]`, `//input[@name="q"]`},
	}
	for _, tt := range tests {
		handle, err := resolver.Resolve(context.Background(), Request{Selector: tt.selector})
		require.NoError(t, err)
		require.NotNil(t, handle)
		assert.Equal(t, tt.want, handle.Selector(), "selector %q", tt.selector)
	}
}

func TestResolve_EnginePrefixWinsOverResourceShape(t *testing.T) {
	resolver, _, _, _ := testResolver(t, nil)

	handle, err := resolver.Resolve(context.Background(), Request{Selector: "xpath=loc.app.login.submit"})
	require.NoError(t, err)
	assert.Equal(t, "loc.app.login.submit", handle.Selector())
}

func TestResolve_RawSelectorHeuristics(t *testing.T) {
	resolver, _, _, _ := testResolver(t, nil)

	raw := []string{
		"//div[@id='main']",
		"(//a)[1]",
		"div > span",
		"div.panel >> input",
		".login-form",
		"#submit",
	}
	for _, selector := range raw {
		handle, err := resolver.Resolve(context.Background(), Request{Selector: selector})
		require.NoError(t, err)
		assert.Equal(t, selector, handle.Selector(), "selector %q", selector)
	}
}

func TestResolve_PlaceholdersApplyBeforeStrategySelection(t *testing.T) {
	resolver, _, _, store := testResolver(t, nil)
	require.NoError(t, store.SetValue("login.submit", "#submit"))

	handle, err := resolver.Resolve(context.Background(), Request{Selector: "#{login.submit}"})
	require.NoError(t, err)
	assert.Equal(t, "#submit", handle.Selector())
}

func TestResolve_BareResourceMissFallsThrough(t *testing.T) {
	resolver, _, _, _ := testResolver(t, nil)

	// No registry entry, no file, engines disabled: the reference passes
	// through to the driver untouched.
	handle, err := resolver.Resolve(context.Background(), Request{Selector: "loc.app.login.submit"})
	require.NoError(t, err)
	assert.Equal(t, "loc.app.login.submit", handle.Selector())
}

func TestResolve_BareResourceRegistryHit(t *testing.T) {
	resolver, _, registry, _ := testResolver(t, nil)
	registry.RegisterNamespace("app", map[string]map[string]Func{
		"login": {
			"submit": func(driver interfaces.Driver) (interfaces.Handle, error) {
				return driver.Locator("#from-code"), nil
			},
		},
	})

	handle, err := resolver.Resolve(context.Background(), Request{Selector: "loc.app.login.submit"})
	require.NoError(t, err)
	assert.Equal(t, "#from-code", handle.Selector())
}

func writeLocatorFile(t *testing.T, dir, file string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file+".json"), []byte(content), 0644))
}

func TestResolve_BareResourceFileHit(t *testing.T) {
	config := common.NewDefaultConfig()
	driver := &fakeDriver{}
	store := vars.NewStore(arbor.NewLogger())
	dir := t.TempDir()
	writeLocatorFile(t, dir, "app", `{"login": {"submit": "#file-submit"}}`)

	resolver := NewResolver(driver, store, NewRegistry(), NewFileNamespace(dir, store), config, arbor.NewLogger())

	handle, err := resolver.Resolve(context.Background(), Request{Selector: "loc.app.login.submit"})
	require.NoError(t, err)
	assert.Equal(t, "#file-submit", handle.Selector())
}

func TestResolve_JSONResourceMissIsHardError(t *testing.T) {
	resolver, _, _, _ := testResolver(t, nil)

	_, err := resolver.Resolve(context.Background(), Request{Selector: "loc.json.app.login.submit"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in json namespace")
}

func TestResolve_CodeResourceMissIsHardError(t *testing.T) {
	resolver, _, _, _ := testResolver(t, nil)

	_, err := resolver.Resolve(context.Background(), Request{Selector: "loc.ts.app.login.submit"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in code namespace")
}

func TestResolve_UnsupportedResourceSource(t *testing.T) {
	resolver, _, _, _ := testResolver(t, nil)

	_, err := resolver.Resolve(context.Background(), Request{Selector: "loc.xml.app.login.submit"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported locator source "xml"`)
}

func TestResolve_MalformedResourceReference(t *testing.T) {
	resolver, _, _, _ := testResolver(t, nil)

	_, err := resolver.Resolve(context.Background(), Request{Selector: "loc.app.login"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid resource locator reference")
}

func TestResolve_JSONResourceDottedFieldKey(t *testing.T) {
	config := common.NewDefaultConfig()
	driver := &fakeDriver{}
	store := vars.NewStore(arbor.NewLogger())
	dir := t.TempDir()
	writeLocatorFile(t, dir, "app", `{"login": {"submit.primary": "#primary-submit"}}`)

	resolver := NewResolver(driver, store, NewRegistry(), NewFileNamespace(dir, store), config, arbor.NewLogger())

	// Everything after the page segment is the field key, dots included.
	handle, err := resolver.Resolve(context.Background(), Request{Selector: "loc.json.app.login.submit.primary"})
	require.NoError(t, err)
	assert.Equal(t, "#primary-submit", handle.Selector())
}

func TestResolve_NilConfigFallsThroughWithoutPanic(t *testing.T) {
	driver := &fakeDriver{}
	store := vars.NewStore(arbor.NewLogger())
	resolver := NewResolver(driver, store, NewRegistry(), nil, nil, arbor.NewLogger())

	// With no configuration the delegated engines are simply disabled and a
	// symbolic reference passes straight through to the driver.
	handle, err := resolver.Resolve(context.Background(), Request{Selector: "Submit order"})
	require.NoError(t, err)
	assert.Equal(t, "Submit order", handle.Selector())
}

func TestResolve_SemanticEngineBeforePattern(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Engines.SemanticEnabled = true
	config.Engines.PatternEnabled = true
	resolver, _, registry, _ := testResolver(t, config)

	semantic := &stubEngine{handle: &fakeHandle{selector: "#semantic"}}
	pattern := &stubEngine{handle: &fakeHandle{selector: "#pattern"}}
	registry.RegisterEngine(EngineSemantic, semantic)
	registry.RegisterEngine(EnginePattern, pattern)

	handle, err := resolver.Resolve(context.Background(), Request{FieldType: "button", Selector: "Submit order"})
	require.NoError(t, err)
	assert.Equal(t, "#semantic", handle.Selector())
	assert.Equal(t, 1, semantic.calls)
	assert.Equal(t, 0, pattern.calls)
	assert.Equal(t, "Submit order", semantic.lastReq.Text)
	assert.Equal(t, "button", semantic.lastReq.FieldType)
}

func TestResolve_EngineFailureFallsThrough(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Engines.SemanticEnabled = true
	config.Engines.PatternEnabled = true
	resolver, _, registry, _ := testResolver(t, config)

	registry.RegisterEngine(EngineSemantic, &stubEngine{err: errors.New("api unavailable")})
	registry.RegisterEngine(EnginePattern, &stubEngine{handle: &fakeHandle{selector: "#pattern"}})

	handle, err := resolver.Resolve(context.Background(), Request{Selector: "Submit"})
	require.NoError(t, err)
	assert.Equal(t, "#pattern", handle.Selector())
}

func TestResolve_EnabledButUnregisteredEngineIsSkipped(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Engines.SemanticEnabled = true
	resolver, _, _, _ := testResolver(t, config)

	handle, err := resolver.Resolve(context.Background(), Request{Selector: "Submit"})
	require.NoError(t, err)
	assert.Equal(t, "Submit", handle.Selector())
}

func TestResolve_EngineMissFallsThroughToRawPassThrough(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Engines.PatternEnabled = true
	resolver, _, registry, _ := testResolver(t, config)

	// nil handle, nil error is a clean miss.
	registry.RegisterEngine(EnginePattern, &stubEngine{})

	handle, err := resolver.Resolve(context.Background(), Request{Selector: "Submit order"})
	require.NoError(t, err)
	assert.Equal(t, "Submit order", handle.Selector())
}

func TestResolve_EngineTimeoutDefaultsFromConfig(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Engines.PatternEnabled = true
	config.Engines.PatternTimeout = "7s"
	resolver, _, registry, _ := testResolver(t, config)

	engine := &stubEngine{handle: &fakeHandle{selector: "#x"}}
	registry.RegisterEngine(EnginePattern, engine)

	_, err := resolver.Resolve(context.Background(), Request{Selector: "Submit"})
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, engine.lastReq.Timeout)
}

func TestFileNamespace_LookupAppliesSubstitution(t *testing.T) {
	store := vars.NewStore(arbor.NewLogger())
	require.NoError(t, store.SetValue("row.index", "3"))

	dir := t.TempDir()
	writeLocatorFile(t, dir, "grid", `{"orders": {"row": "//tr[#{row.index}]"}}`)

	files := NewFileNamespace(dir, store)
	selector, found, err := files.Lookup("grid", "orders", "row")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "//tr[3]", selector)
}

func TestFileNamespace_MissingFilePageField(t *testing.T) {
	dir := t.TempDir()
	writeLocatorFile(t, dir, "app", `{"login": {"submit": "#s"}}`)
	files := NewFileNamespace(dir, nil)

	_, found, err := files.Lookup("absent", "login", "submit")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = files.Lookup("app", "absent", "submit")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = files.Lookup("app", "login", "absent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileNamespace_MalformedFileIsError(t *testing.T) {
	dir := t.TempDir()
	writeLocatorFile(t, dir, "bad", `{not json`)
	files := NewFileNamespace(dir, nil)

	_, _, err := files.Lookup("bad", "page", "field")
	require.Error(t, err)
}
