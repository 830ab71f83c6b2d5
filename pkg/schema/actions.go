package schema

import (
	"sort"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

func (p *parser) actionSets(raw any, path string) (map[string]*models.ActionSet, error) {
	out := map[string]*models.ActionSet{}
	if raw == nil {
		return out, nil
	}
	o, ok := raw.(object)
	if !ok {
		return nil, invalid(path, "expected an object")
	}

	// Sorted so fresh ids are handed out in the same order on every parse.
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "" {
			continue
		}
		p.gen.ObserveKey(key)
		set, err := p.actionSet(o[key], join(path, key))
		if err != nil {
			return nil, err
		}
		out[key] = set
	}
	return out, nil
}

// actionSet accepts {"actions": [...]} and the bare array older versions
// stored.
func (p *parser) actionSet(raw any, path string) (*models.ActionSet, error) {
	set := &models.ActionSet{Actions: []models.Action{}}
	var actions []any
	switch v := raw.(type) {
	case nil:
		return set, nil
	case []any:
		actions = v
	case object:
		var err error
		if actions, err = list(v, "actions", path); err != nil {
			return nil, err
		}
	default:
		return nil, invalid(path, "expected an action set")
	}

	for i, r := range actions {
		a, err := p.action(r, index(join(path, "actions"), i))
		if err != nil {
			return nil, err
		}
		set.Actions = append(set.Actions, a)
	}
	return set, nil
}

func (p *parser) action(raw any, path string) (models.Action, error) {
	o, ok := raw.(object)
	if !ok {
		return nil, invalid(path, "expected an object")
	}
	n, ok := integer(o["type"])
	t := models.ActionType(n)
	if !ok || !t.Valid() {
		return nil, invalid(join(path, "type"), "unknown action type %v", o["type"])
	}

	a := models.NewAction(0, t)
	switch v := a.(type) {
	case *models.TextResponseAction:
		v.Text = str(o, "text")
		v.Public = boolean(o, "public")
		v.AllowRoleMentions = boolean(o, "allow_role_mentions")
	case *models.SavedMessageResponseAction:
		v.TargetID = keyString(o["target_id"])
		v.Public = boolean(o, "public")
		v.AllowRoleMentions = boolean(o, "allow_role_mentions")
	case *models.RoleAction:
		v.TargetID = snowflakeValue(o["target_id"])
		v.Public = boolean(o, "public")
		v.AllowRoleMentions = boolean(o, "allow_role_mentions")
		v.DisableDefaultResponse = boolean(o, "disable_default_response")
	case *models.PermissionCheckAction:
		v.Permissions = keyString(o["permissions"])
		v.DisableDefaultResponse = boolean(o, "disable_default_response")
		if roles, ok := o["role_ids"].([]any); ok {
			for _, r := range roles {
				if id := snowflakeValue(r); id != 0 {
					v.RoleIDs = append(v.RoleIDs, id)
				}
			}
		}
	}
	models.SetActionID(a, p.id(o["id"], func(id int) { models.SetActionID(a, id) }))
	return a, nil
}
