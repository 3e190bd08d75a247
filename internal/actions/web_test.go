package actions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
	"github.com/ternarybob/playq/internal/locator"
	"github.com/ternarybob/playq/internal/vars"
)

// scriptedHandle plays back a text script and records interactions.
type scriptedHandle struct {
	selector string
	text     func() string
	clickErr error
	clicks   int
	filled   string
}

func (h *scriptedHandle) Selector() string { return h.selector }
func (h *scriptedHandle) Click(ctx context.Context) error {
	h.clicks++
	return h.clickErr
}
func (h *scriptedHandle) Fill(ctx context.Context, value string) error {
	h.filled = value
	return nil
}
func (h *scriptedHandle) Check(ctx context.Context, _ bool) error { return nil }
func (h *scriptedHandle) Hover(ctx context.Context) error         { return nil }
func (h *scriptedHandle) Count(ctx context.Context) (int, error)  { return 1, nil }
func (h *scriptedHandle) IsVisible(ctx context.Context) (bool, error) {
	return true, nil
}
func (h *scriptedHandle) InnerText(ctx context.Context) (string, error) {
	if h.text == nil {
		return "", nil
	}
	return h.text(), nil
}
func (h *scriptedHandle) GetAttribute(ctx context.Context, _ string) (string, error) {
	return "", nil
}
func (h *scriptedHandle) WaitFor(ctx context.Context, _ interfaces.ElementState, _ time.Duration) error {
	return nil
}
func (h *scriptedHandle) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }

// scriptedDriver hands out the scripted handle for every selector and
// counts resolutions.
type scriptedDriver struct {
	handle       *scriptedHandle
	locatorCalls int
}

func (d *scriptedDriver) Locator(selector string) interfaces.Handle {
	d.locatorCalls++
	d.handle.selector = selector
	return d.handle
}
func (d *scriptedDriver) Navigate(ctx context.Context, url string) error { return nil }
func (d *scriptedDriver) URL(ctx context.Context) (string, error)        { return "", nil }
func (d *scriptedDriver) Title(ctx context.Context) (string, error)      { return "", nil }
func (d *scriptedDriver) HTML(ctx context.Context) (string, error)       { return "", nil }
func (d *scriptedDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}
func (d *scriptedDriver) Close() error { return nil }

type recordingSink struct {
	labels []string
	texts  []string
}

func (s *recordingSink) Attach(data []byte, mimeType, label string) error {
	s.labels = append(s.labels, label)
	if mimeType == "text/plain" {
		s.texts = append(s.texts, string(data))
	}
	return nil
}

func (s *recordingSink) hasLabelPrefix(prefix string) bool {
	for _, label := range s.labels {
		if strings.HasPrefix(label, prefix) {
			return true
		}
	}
	return false
}

func newTestWeb(t *testing.T, handle *scriptedHandle, seed map[string]string) (*Web, *scriptedDriver, *recordingSink) {
	t.Helper()
	config := common.NewDefaultConfig()
	config.TestExecution.PollInterval = "50ms"
	driver := &scriptedDriver{handle: handle}
	store := vars.NewStore(arbor.NewLogger())
	store.Init(nil, seed)
	resolver := locator.NewResolver(driver, store, locator.NewRegistry(), nil, config, arbor.NewLogger())
	sink := &recordingSink{}
	web := NewWeb(driver, resolver, store, sink, config, arbor.NewLogger())
	return web, driver, sink
}

func TestWeb_DefaultsTimeoutFromStore(t *testing.T) {
	web, _, _ := newTestWeb(t, &scriptedHandle{}, map[string]string{
		"config.testExecution.actionTimeout": "5000",
	})

	opts := web.defaults()
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, 50*time.Millisecond, opts.Interval)
}

func TestWeb_DefaultsTimeoutEnvOverride(t *testing.T) {
	t.Setenv("PLAYQ__testExecution__actionTimeout", "1500")
	web, _, _ := newTestWeb(t, &scriptedHandle{}, map[string]string{
		"config.testExecution.actionTimeout": "5000",
	})

	// The environment override wins over the stored configuration value.
	assert.Equal(t, 1500*time.Millisecond, web.defaults().Timeout)
}

func TestWeb_WaitForText_PartialMatchAppearsLater(t *testing.T) {
	started := time.Now()
	handle := &scriptedHandle{text: func() string {
		if time.Since(started) >= 1200*time.Millisecond {
			return "Welcome back, Alice"
		}
		return "Loading..."
	}}
	web, driver, _ := newTestWeb(t, handle, map[string]string{
		"config.testExecution.actionTimeout": "5000",
	})

	err := web.WaitForText(context.Background(), "text", "#status", "Welcome", `{partialMatch: True}`)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), time.Second)
	// The reference re-resolves on every poll tick.
	assert.Greater(t, driver.locatorCalls, 1)
}

func TestWeb_WaitForText_TimeoutReportsConfiguredTimeoutAndLastText(t *testing.T) {
	handle := &scriptedHandle{text: func() string { return "Loading..." }}
	web, _, sink := newTestWeb(t, handle, map[string]string{
		"config.testExecution.actionTimeout": "5000",
	})

	err := web.WaitForText(context.Background(), "text", "#status", "Ready", `{partialMatch: True}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to wait for text on #status")
	assert.Contains(t, err.Error(), "timed out after 5000ms")
	assert.Contains(t, err.Error(), "Loading...")
	// ScreenshotOnFailure captures failure evidence.
	assert.True(t, sink.hasLabelPrefix("failure_"))
}

func TestWeb_WaitForText_EnvOverrideBoundsWait(t *testing.T) {
	t.Setenv("PLAYQ__testExecution__actionTimeout", "700")
	handle := &scriptedHandle{text: func() string { return "Loading..." }}
	web, _, _ := newTestWeb(t, handle, map[string]string{
		"config.testExecution.actionTimeout": "5000",
	})

	err := web.WaitForText(context.Background(), "text", "#status", "Ready", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out after 700ms")
}

func TestWeb_WaitForText_NoCheckSucceedsImmediately(t *testing.T) {
	started := time.Now()
	handle := &scriptedHandle{text: func() string { return "never matches" }}
	web, driver, _ := newTestWeb(t, handle, map[string]string{
		"config.testExecution.actionTimeout": "5000",
	})

	err := web.WaitForText(context.Background(), "text", "#status", "Ready", `{pattern: '-no-check-'}`)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second)
	assert.Zero(t, driver.locatorCalls)
}

func TestWeb_Click_NoCheckSkips(t *testing.T) {
	handle := &scriptedHandle{}
	web, driver, sink := newTestWeb(t, handle, nil)

	err := web.Click(context.Background(), "button", "#gone", `{pattern: '-no-check-'}`)
	require.NoError(t, err)
	assert.Zero(t, handle.clicks)
	assert.Zero(t, driver.locatorCalls)
	require.NotEmpty(t, sink.texts)
	assert.Contains(t, sink.texts[0], "Click skipped")
}

func TestWeb_Click_FailureIsWrapped(t *testing.T) {
	handle := &scriptedHandle{clickErr: errors.New("node detached")}
	web, _, sink := newTestWeb(t, handle, nil)

	err := web.Click(context.Background(), "button", "#go", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to click #go")
	assert.Contains(t, err.Error(), "node detached")
	assert.True(t, sink.hasLabelPrefix("failure_"))
}

func TestWeb_Fill_SubstitutesValue(t *testing.T) {
	handle := &scriptedHandle{}
	web, driver, _ := newTestWeb(t, handle, map[string]string{"user.name": "alice"})

	err := web.Fill(context.Background(), "input", "#username", "#{user.name}", nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", handle.filled)
	assert.Equal(t, "#username", driver.handle.selector)
}
