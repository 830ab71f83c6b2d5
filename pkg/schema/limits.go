package schema

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// Plan tiers known to the limits table.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Limits are the structural caps a message must respect before it is sent.
// The editor itself does not enforce them; see Store.CanAdd*.
type Limits struct {
	MaxEmbeds            int
	MaxEmbedFields       int
	MaxComponentRows     int
	MaxRowChildren       int
	MaxSectionChildren   int
	MaxSelectOptions     int
	MaxContainerChildren int
	MaxActions           int
	MaxAttachments       int
	MaxAttachmentBytes   int64
	MaxContentLength     int
	MaxTextDisplayLength int
}

// DefaultLimits are the free plan limits.
func DefaultLimits() Limits {
	return Limits{
		MaxEmbeds:            10,
		MaxEmbedFields:       25,
		MaxComponentRows:     5,
		MaxRowChildren:       5,
		MaxSectionChildren:   3,
		MaxSelectOptions:     25,
		MaxContainerChildren: 10,
		MaxActions:           2,
		MaxAttachments:       10,
		MaxAttachmentBytes:   25 * 1000 * 1000,
		MaxContentLength:     2000,
		MaxTextDisplayLength: 4000,
	}
}

// LimitsForPlan returns the limits of a plan tier. Unknown plans get the free
// limits.
func LimitsForPlan(plan string) Limits {
	l := DefaultLimits()
	if plan == PlanPremium {
		l.MaxActions = 5
	}
	return l
}

// ValidPlan reports whether plan names a known tier.
func ValidPlan(plan string) bool {
	return plan == PlanFree || plan == PlanPremium
}

// Violation is one broken limit.
type Violation struct {
	Path   string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Reason)
}

// Validate checks m against l and returns every violation joined, or nil.
func Validate(m *models.Message, l Limits) error {
	var errs []error
	add := func(path, format string, args ...any) {
		errs = append(errs, &Violation{Path: path, Reason: fmt.Sprintf(format, args...)})
	}

	if n := utf8.RuneCountInString(m.Content); n > l.MaxContentLength {
		add("content", "%d characters exceeds %d", n, l.MaxContentLength)
	}
	if len(m.Embeds) > l.MaxEmbeds {
		add("embeds", "%d embeds exceeds %d", len(m.Embeds), l.MaxEmbeds)
	}
	for i, e := range m.Embeds {
		if len(e.Fields) > l.MaxEmbedFields {
			add(index("embeds", i)+".fields", "%d fields exceeds %d", len(e.Fields), l.MaxEmbedFields)
		}
	}

	top := l.MaxComponentRows
	if m.ComponentsV2() {
		top = l.MaxContainerChildren
	}
	if len(m.Components) > top {
		add("components", "%d components exceeds %d", len(m.Components), top)
	}
	for i, c := range m.Components {
		if c != nil && !models.AllowsTopLevel(c.ComponentType(), m.ComponentsV2()) {
			add(index("components", i), "component type %d not allowed at the top level", c.ComponentType())
		}
	}
	validateComponents(m.Components, "components", l, add)

	for key, set := range m.Actions {
		if set != nil && len(set.Actions) > l.MaxActions {
			add(join("actions", key), "%d actions exceeds %d", len(set.Actions), l.MaxActions)
		}
	}
	for _, key := range m.ActionSetRefs() {
		if _, ok := m.Actions[key]; !ok {
			add(join("actions", key), "referenced action set is missing")
		}
	}

	return errors.Join(errs...)
}

func validateComponents(cs []models.Component, path string, l Limits, add func(string, string, ...any)) {
	for i, c := range cs {
		p := index(path, i)
		if c != nil {
			if err := models.CheckNesting(c); err != nil {
				add(p+"."+err.Path, "component type %d not allowed in component type %d", err.Child, err.Parent)
				continue
			}
		}
		switch v := c.(type) {
		case *models.ActionRow:
			if len(v.Components) > l.MaxRowChildren {
				add(p, "%d row children exceeds %d", len(v.Components), l.MaxRowChildren)
			}
			validateComponents(v.Components, p+".components", l, add)
		case *models.SelectMenu:
			if len(v.Options) > l.MaxSelectOptions {
				add(p, "%d options exceeds %d", len(v.Options), l.MaxSelectOptions)
			}
		case *models.Section:
			if len(v.Components) > l.MaxSectionChildren {
				add(p, "%d section children exceeds %d", len(v.Components), l.MaxSectionChildren)
			}
			validateComponents(v.Components, p+".components", l, add)
		case *models.TextDisplay:
			if n := utf8.RuneCountInString(v.Content); n > l.MaxTextDisplayLength {
				add(p, "%d characters exceeds %d", n, l.MaxTextDisplayLength)
			}
		case *models.Container:
			if len(v.Components) == 0 {
				add(p, "container is empty")
			}
			if len(v.Components) > l.MaxContainerChildren {
				add(p, "%d container children exceeds %d", len(v.Components), l.MaxContainerChildren)
			}
			validateComponents(v.Components, p+".components", l, add)
		}
	}
}
