package editor

import (
	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// actionSets holds the action operations shared by the message store and
// the standalone ActionStore. Every method reports whether it changed
// anything. Sets are addressed by key, actions by index inside the set.
type actionSets map[string]*models.ActionSet

func (sets actionSets) action(key string, j int) models.Action {
	set := sets[key]
	if set == nil || !inRange(set.Actions, j) {
		return nil
	}
	return set.Actions[j]
}

func (sets actionSets) add(gen *ids.Generator, key string, t models.ActionType, create bool) (int, bool) {
	a := models.NewAction(0, t)
	if a == nil {
		return 0, false
	}
	set := sets[key]
	if set == nil {
		if !create || key == "" {
			return 0, false
		}
		set = emptySet()
		sets[key] = set
	}
	id := gen.Next()
	models.SetActionID(a, id)
	set.Actions = append(set.Actions, a)
	return id, true
}

func (sets actionSets) clear(key string) bool {
	set := sets[key]
	if set == nil || len(set.Actions) == 0 {
		return false
	}
	set.Actions = []models.Action{}
	return true
}

func (sets actionSets) moveUp(key string, j int) bool {
	set := sets[key]
	return set != nil && moveUp(set.Actions, j)
}

func (sets actionSets) moveDown(key string, j int) bool {
	set := sets[key]
	return set != nil && moveDown(set.Actions, j)
}

func (sets actionSets) duplicate(gen *ids.Generator, key string, j int) bool {
	a := sets.action(key, j)
	if a == nil {
		return false
	}
	cp := models.CloneAction(a)
	models.SetActionID(cp, gen.Next())
	insertAfter(&sets[key].Actions, j, cp)
	return true
}

func (sets actionSets) remove(key string, j int) bool {
	set := sets[key]
	if set == nil {
		return false
	}
	_, ok := removeAt(&set.Actions, j)
	return ok
}

// setType rebuilds the action with the defaults of the new variant. The id
// is kept; every other field is reset.
func (sets actionSets) setType(key string, j int, t models.ActionType) bool {
	a := sets.action(key, j)
	if a == nil || !t.Valid() || a.ActionType() == t {
		return false
	}
	sets[key].Actions[j] = models.NewAction(a.ActionID(), t)
	return true
}

// update applies fn to action j; fn decides whether the field belongs to the
// action's variant.
func (sets actionSets) update(key string, j int, fn func(a models.Action) bool) bool {
	a := sets.action(key, j)
	return a != nil && fn(a)
}

func setText(a models.Action, text string) bool {
	v, ok := a.(*models.TextResponseAction)
	return ok && set(&v.Text, text)
}

// setTargetID writes a saved message id or a role snowflake depending on the
// variant. Role ids that do not parse are ignored.
func setTargetID(a models.Action, target string) bool {
	switch v := a.(type) {
	case *models.SavedMessageResponseAction:
		return set(&v.TargetID, target)
	case *models.RoleAction:
		if target == "" {
			return set(&v.TargetID, 0)
		}
		id, err := models.ParseSnowflake(target)
		if err != nil {
			return false
		}
		return set(&v.TargetID, id)
	}
	return false
}

func setPublic(a models.Action, public bool) bool {
	switch v := a.(type) {
	case *models.TextResponseAction:
		return set(&v.Public, public)
	case *models.SavedMessageResponseAction:
		return set(&v.Public, public)
	case *models.RoleAction:
		return set(&v.Public, public)
	}
	return false
}

func setAllowRoleMentions(a models.Action, allow bool) bool {
	switch v := a.(type) {
	case *models.TextResponseAction:
		return set(&v.AllowRoleMentions, allow)
	case *models.SavedMessageResponseAction:
		return set(&v.AllowRoleMentions, allow)
	case *models.RoleAction:
		return set(&v.AllowRoleMentions, allow)
	}
	return false
}

func setDisableDefaultResponse(a models.Action, disable bool) bool {
	switch v := a.(type) {
	case *models.RoleAction:
		return set(&v.DisableDefaultResponse, disable)
	case *models.PermissionCheckAction:
		return set(&v.DisableDefaultResponse, disable)
	}
	return false
}

func setPermissions(a models.Action, permissions string) bool {
	v, ok := a.(*models.PermissionCheckAction)
	return ok && set(&v.Permissions, permissions)
}

func setRoleIDs(a models.Action, roles []models.Snowflake) bool {
	v, ok := a.(*models.PermissionCheckAction)
	if !ok || equalSnowflakes(v.RoleIDs, roles) {
		return false
	}
	v.RoleIDs = append([]models.Snowflake{}, roles...)
	return true
}

func equalSnowflakes(a, b []models.Snowflake) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Action operations on the message store. Keys that the message has no
// action set for are ignored, so these can never create orphaned sets.

// AddAction appends a default action of type t and returns its id.
func (s *Store) AddAction(key string, t models.ActionType) int {
	var id int
	s.update("AddAction", func(m *models.Message) bool {
		var ok bool
		id, ok = actionSets(m.Actions).add(s.gen, key, t, false)
		return ok
	})
	return id
}

func (s *Store) ClearActions(key string) {
	s.update("ClearActions", func(m *models.Message) bool {
		return actionSets(m.Actions).clear(key)
	})
}

func (s *Store) MoveActionUp(key string, j int) {
	s.update("MoveActionUp", func(m *models.Message) bool {
		return actionSets(m.Actions).moveUp(key, j)
	})
}

func (s *Store) MoveActionDown(key string, j int) {
	s.update("MoveActionDown", func(m *models.Message) bool {
		return actionSets(m.Actions).moveDown(key, j)
	})
}

func (s *Store) DuplicateAction(key string, j int) {
	s.update("DuplicateAction", func(m *models.Message) bool {
		return actionSets(m.Actions).duplicate(s.gen, key, j)
	})
}

func (s *Store) DeleteAction(key string, j int) {
	s.update("DeleteAction", func(m *models.Message) bool {
		return actionSets(m.Actions).remove(key, j)
	})
}

func (s *Store) SetActionType(key string, j int, t models.ActionType) {
	s.update("SetActionType", func(m *models.Message) bool {
		return actionSets(m.Actions).setType(key, j, t)
	})
}

func (s *Store) updateAction(op, key string, j int, fn func(a models.Action) bool) {
	s.update(op, func(m *models.Message) bool {
		return actionSets(m.Actions).update(key, j, fn)
	})
}

func (s *Store) SetActionText(key string, j int, text string) {
	s.updateAction("SetActionText", key, j, func(a models.Action) bool { return setText(a, text) })
}

func (s *Store) SetActionTargetID(key string, j int, target string) {
	s.updateAction("SetActionTargetID", key, j, func(a models.Action) bool { return setTargetID(a, target) })
}

func (s *Store) SetActionPublic(key string, j int, public bool) {
	s.updateAction("SetActionPublic", key, j, func(a models.Action) bool { return setPublic(a, public) })
}

func (s *Store) SetActionAllowRoleMentions(key string, j int, allow bool) {
	s.updateAction("SetActionAllowRoleMentions", key, j, func(a models.Action) bool { return setAllowRoleMentions(a, allow) })
}

func (s *Store) SetActionDisableDefaultResponse(key string, j int, disable bool) {
	s.updateAction("SetActionDisableDefaultResponse", key, j, func(a models.Action) bool { return setDisableDefaultResponse(a, disable) })
}

func (s *Store) SetActionPermissions(key string, j int, permissions string) {
	s.updateAction("SetActionPermissions", key, j, func(a models.Action) bool { return setPermissions(a, permissions) })
}

func (s *Store) SetActionRoleIDs(key string, j int, roles []models.Snowflake) {
	s.updateAction("SetActionRoleIDs", key, j, func(a models.Action) bool { return setRoleIDs(a, roles) })
}
