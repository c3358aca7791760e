// Package registry maps CloudTrail (eventSource, eventName) pairs onto
// resource descriptors. The table is built once at init time and is
// read-only afterwards; adding a monitored resource type is one new row
// in descriptors.go, not new control flow.
package registry

import (
	"fmt"

	"github.com/jmespath/go-jmespath"
	"github.com/stackwatch/resource-notifier/internal/models"
)

// Rule locates one value inside a CloudTrail detail payload. Paths are
// JMESPath expressions tried in order; the first non-empty match wins and
// Default covers the rest. Transform, when set, post-processes the
// matched value.
type Rule struct {
	Paths     []string
	Default   string
	Transform func(string) string
}

// Eval resolves the rule against a detail payload. Path failures degrade
// to the default; Eval never fails.
func (r Rule) Eval(detail map[string]any) string {
	for _, path := range r.Paths {
		raw, err := jmespath.Search(path, detail)
		if err != nil || raw == nil {
			continue
		}
		value := ""
		switch v := raw.(type) {
		case string:
			value = v
		case bool, float64, int:
			value = fmt.Sprintf("%v", v)
		default:
			continue
		}
		if value == "" {
			continue
		}
		if r.Transform != nil {
			value = r.Transform(value)
		}
		return value
	}
	return r.Default
}

// Extra declares a labelled, kind-specific fact extracted from the payload.
type Extra struct {
	Label string
	Rule  Rule
}

// Descriptor binds one (eventSource, eventName) pair to a resource kind,
// an action, and the extraction rules for its identity and extra facts.
type Descriptor struct {
	Kind   models.Kind
	Action models.Action

	// ID and Name locate the resource identity. A descriptor whose ID and
	// Name both resolve empty yields a missing-identity extraction error.
	ID   Rule
	Name Rule

	// Extras are rendered after the fixed identity facts, in order.
	Extras []Extra

	// ActionPath, when set, resolves the action from the payload instead
	// of the static Action field. Route53 record change batches carry
	// CREATE and DELETE under a single event name.
	ActionPath string
}

// ResolveAction returns the action this event represents. The second
// return value is false when the payload describes a change outside the
// supported set (e.g. an UPSERT change batch).
func (d *Descriptor) ResolveAction(detail map[string]any) (models.Action, bool) {
	if d.ActionPath == "" {
		return d.Action, true
	}
	raw, err := jmespath.Search(d.ActionPath, detail)
	if err != nil {
		return "", false
	}
	switch raw {
	case "CREATE":
		return models.ActionCreated, true
	case "DELETE":
		return models.ActionDeleted, true
	default:
		return "", false
	}
}

type key struct {
	source string
	name   string
}

var table = make(map[key]*Descriptor)

// register installs a descriptor. A duplicate (source, name) pair is a
// configuration error and fails fast at startup.
func register(source, name string, d Descriptor) {
	k := key{source: source, name: name}
	if _, dup := table[k]; dup {
		panic(fmt.Sprintf("registry: duplicate descriptor for (%s, %s)", source, name))
	}
	table[k] = &d
}

// Lookup returns the descriptor for an (eventSource, eventName) pair.
// Pure and read-only; a miss means the event is outside the supported set.
func Lookup(eventSource, eventName string) (*Descriptor, bool) {
	d, ok := table[key{source: eventSource, name: eventName}]
	return d, ok
}

// Size returns the number of registered descriptors.
func Size() int {
	return len(table)
}
