package models

// WalkComponents visits every component in cs depth first, parents before
// children. Section accessories are visited after the section's text
// displays.
func WalkComponents(cs []Component, fn func(Component)) {
	for _, c := range cs {
		walkComponent(c, fn)
	}
}

func walkComponent(c Component, fn func(Component)) {
	if c == nil {
		return
	}
	fn(c)
	if children := Children(c); children != nil {
		WalkComponents(*children, fn)
	}
	if s, ok := c.(*Section); ok && s.Accessory != nil {
		walkComponent(s.Accessory, fn)
	}
}

// ActionSetSlots returns a pointer to every action_set_id field in the
// subtrees of cs: non-link buttons and select menu options. Callers use the
// slots to rekey references in place.
func ActionSetSlots(cs []Component) []*string {
	var out []*string
	WalkComponents(cs, func(c Component) {
		switch v := c.(type) {
		case *Button:
			if !v.IsLink() {
				out = append(out, &v.ActionSetID)
			}
		case *SelectMenu:
			for _, o := range v.Options {
				if o != nil {
					out = append(out, &o.ActionSetID)
				}
			}
		}
	})
	return out
}

// ActionSetRefs lists the non-empty action set keys referenced in cs, in tree
// order. A key shared by several components is listed once per reference.
func ActionSetRefs(cs []Component) []string {
	var out []string
	for _, slot := range ActionSetSlots(cs) {
		if *slot != "" {
			out = append(out, *slot)
		}
	}
	return out
}

// ActionSetRefs lists every action set key referenced by the message.
func (m *Message) ActionSetRefs() []string {
	return ActionSetRefs(m.Components)
}

// SetComponentID overwrites the id of a component.
func SetComponentID(c Component, id int) {
	if c != nil {
		c.setComponentID(id)
	}
}

// SetActionID overwrites the id of an action.
func SetActionID(a Action, id int) {
	if a != nil {
		a.setActionID(id)
	}
}

// RenumberComponent gives c and every id-bearing entity nested in it
// (components, select options, gallery items) a fresh id from next.
func RenumberComponent(c Component, next func() int) {
	walkComponent(c, func(c Component) {
		c.setComponentID(next())
		switch v := c.(type) {
		case *SelectMenu:
			for _, o := range v.Options {
				if o != nil {
					o.ID = next()
				}
			}
		case *MediaGallery:
			for _, it := range v.Items {
				if it != nil {
					it.ID = next()
				}
			}
		}
	})
}

// RenumberEmbed gives the embed and its fields fresh ids.
func RenumberEmbed(e *Embed, next func() int) {
	e.ID = next()
	for _, f := range e.Fields {
		if f != nil {
			f.ID = next()
		}
	}
}

// RenumberActionSet gives every action of the set a fresh id.
func RenumberActionSet(s *ActionSet, next func() int) {
	for _, a := range s.Actions {
		SetActionID(a, next())
	}
}

// ForEachID calls fn with the id of every id-bearing entity of the message.
func (m *Message) ForEachID(fn func(id int)) {
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		fn(e.ID)
		for _, f := range e.Fields {
			if f != nil {
				fn(f.ID)
			}
		}
	}
	WalkComponents(m.Components, func(c Component) {
		fn(c.ComponentID())
		switch v := c.(type) {
		case *SelectMenu:
			for _, o := range v.Options {
				if o != nil {
					fn(o.ID)
				}
			}
		case *MediaGallery:
			for _, it := range v.Items {
				if it != nil {
					fn(it.ID)
				}
			}
		}
	})
	for _, set := range m.Actions {
		if set == nil {
			continue
		}
		for _, a := range set.Actions {
			if a != nil {
				fn(a.ActionID())
			}
		}
	}
}
