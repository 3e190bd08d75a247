// Package steps parses the declarative action vocabulary and dispatches to
// the action layer.
//
// A step is a single authored line:
//
//	Web: Click button -field: loc.portal.login.submit -options: {timeout: 5000}
//	Web: Fill input -field: #username -value: #{var.static.centre.code}
//	Web: WaitForText -field: .status -value: Ready -options: {partialMatch: True}
package steps

import (
	"fmt"
	"regexp"
	"strings"
)

// Step is one parsed action line.
type Step struct {
	Namespace string // "Web"
	Action    string // "Click", "Fill", ...
	FieldType string // optional field-category hint ("button", "input")
	Field     string // symbolic field reference
	Value     string // value argument (fill text, expected text, url)
	Options   string // loose options string, parsed by the action layer
}

// headPattern splits "Web: Click button" into namespace, action and the
// optional field type.
var headPattern = regexp.MustCompile(`^\s*([A-Za-z]+)\s*:\s*([A-Za-z][A-Za-z ]*?)(?:\s+([a-z][a-z0-9_-]*))?\s*$`)

// argPattern finds -field: / -value: / -options: / -type: markers.
var argPattern = regexp.MustCompile(`\s-(field|value|options|type):\s*`)

// Parse splits a raw step line into its parts. The head (namespace, action,
// optional field type) ends at the first argument marker; everything after
// a marker up to the next marker is that argument's value, verbatim.
func Parse(raw string) (Step, error) {
	if strings.TrimSpace(raw) == "" {
		return Step{}, fmt.Errorf("empty step")
	}

	markers := argPattern.FindAllStringSubmatchIndex(raw, -1)

	head := raw
	if len(markers) > 0 {
		head = raw[:markers[0][0]]
	}

	m := headPattern.FindStringSubmatch(head)
	if m == nil {
		return Step{}, fmt.Errorf("unparseable step head %q: expected \"<Namespace>: <Action> [type]\"", head)
	}

	step := Step{
		Namespace: m[1],
		Action:    strings.TrimSpace(m[2]),
		FieldType: m[3],
	}

	for i, marker := range markers {
		name := raw[marker[2]:marker[3]]
		valueStart := marker[1]
		valueEnd := len(raw)
		if i+1 < len(markers) {
			valueEnd = markers[i+1][0]
		}
		value := strings.TrimSpace(raw[valueStart:valueEnd])

		switch name {
		case "field":
			step.Field = value
		case "value":
			step.Value = value
		case "options":
			step.Options = value
		case "type":
			step.FieldType = value
		}
	}

	return step, nil
}
