package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/actions"
	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/vars"
)

// Executor maps parsed steps onto the action layer. This is the in-repo
// analog of a step-definition table: one row per action name, each row a
// thin call into actions.Web.
type Executor struct {
	web    *actions.Web
	store  *vars.Store
	logger arbor.ILogger
}

// NewExecutor creates a step executor.
func NewExecutor(web *actions.Web, store *vars.Store, logger arbor.ILogger) *Executor {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Executor{web: web, store: store, logger: logger}
}

// Execute parses and runs one step line. Unknown namespaces and actions are
// hard errors naming the offending input.
func (e *Executor) Execute(ctx context.Context, raw string) error {
	step, err := Parse(raw)
	if err != nil {
		return err
	}

	if !strings.EqualFold(step.Namespace, "web") && !strings.EqualFold(step.Namespace, "var") {
		return fmt.Errorf("unknown step namespace %q in %q", step.Namespace, raw)
	}

	if strings.EqualFold(step.Namespace, "var") {
		return e.executeVar(step, raw)
	}

	var options any
	if step.Options != "" {
		options = step.Options
	}

	switch normalizeAction(step.Action) {
	case "navigate", "open":
		return e.web.Navigate(ctx, step.Value)
	case "click":
		return e.web.Click(ctx, fieldTypeOr(step, "button"), step.Field, options)
	case "fill", "type", "enter":
		return e.web.Fill(ctx, fieldTypeOr(step, "input"), step.Field, step.Value, options)
	case "check":
		return e.web.Check(ctx, step.Field, true, options)
	case "uncheck":
		return e.web.Check(ctx, step.Field, false, options)
	case "hover":
		return e.web.Hover(ctx, fieldTypeOr(step, "field"), step.Field, options)
	case "waitfortext":
		return e.web.WaitForText(ctx, fieldTypeOr(step, "text"), step.Field, step.Value, options)
	case "waitforvisible":
		return e.web.WaitForVisible(ctx, fieldTypeOr(step, "field"), step.Field, true, options)
	case "waitforhidden":
		return e.web.WaitForVisible(ctx, fieldTypeOr(step, "field"), step.Field, false, options)
	case "asserttext", "verifytext":
		return e.web.AssertText(ctx, fieldTypeOr(step, "text"), step.Field, step.Value, options)
	case "screenshot":
		label := step.Value
		if label == "" {
			label = "screenshot"
		}
		return e.web.Screenshot(ctx, label)
	default:
		return fmt.Errorf("unknown action %q in step %q", step.Action, raw)
	}
}

// executeVar handles the Var: namespace (store mutation from authored
// steps). "Var: Set -field: var.static.centre.code -value: X".
func (e *Executor) executeVar(step Step, raw string) error {
	switch normalizeAction(step.Action) {
	case "set":
		value := e.store.ReplaceVariables(step.Value)
		return e.store.SetValue(step.Field, value)
	default:
		return fmt.Errorf("unknown action %q in step %q", step.Action, raw)
	}
}

func normalizeAction(action string) string {
	return strings.ToLower(strings.ReplaceAll(action, " ", ""))
}

func fieldTypeOr(step Step, fallback string) string {
	if step.FieldType != "" {
		return step.FieldType
	}
	return fallback
}
