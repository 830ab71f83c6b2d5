package models

// ActionType is the numeric discriminant of an action. The values are part
// of the wire contract shared with the backend.
type ActionType int

const (
	ActionTypeTextResponse         ActionType = 1
	ActionTypeToggleRole           ActionType = 2
	ActionTypeAddRole              ActionType = 3
	ActionTypeRemoveRole           ActionType = 4
	ActionTypeSavedMessageResponse ActionType = 5
	ActionTypeTextDM               ActionType = 6
	ActionTypeSavedMessageDM       ActionType = 7
	ActionTypeTextEdit             ActionType = 8
	ActionTypeSavedMessageEdit     ActionType = 9
	ActionTypePermissionCheck      ActionType = 10
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	return t >= ActionTypeTextResponse && t <= ActionTypePermissionCheck
}

// Action is a single effect executed server-side when a component is used.
// Implementations: TextResponseAction, SavedMessageResponseAction,
// RoleAction and PermissionCheckAction. Each has a disjoint field set.
type Action interface {
	ActionID() int
	ActionType() ActionType
	setActionID(id int)
}

// TextResponseAction replies with text in the channel (1), by DM (6) or by
// editing the message (8).
type TextResponseAction struct {
	ID                int        `json:"id"`
	Type              ActionType `json:"type"`
	Text              string     `json:"text"`
	Public            bool       `json:"public"`
	AllowRoleMentions bool       `json:"allow_role_mentions"`
}

// SavedMessageResponseAction replies with a saved message in the channel
// (5), by DM (7) or by editing the message (9).
type SavedMessageResponseAction struct {
	ID                int        `json:"id"`
	Type              ActionType `json:"type"`
	TargetID          string     `json:"target_id"`
	Public            bool       `json:"public"`
	AllowRoleMentions bool       `json:"allow_role_mentions"`
}

// RoleAction toggles (2), adds (3) or removes (4) a role.
type RoleAction struct {
	ID                     int        `json:"id"`
	Type                   ActionType `json:"type"`
	TargetID               Snowflake  `json:"target_id,omitempty"`
	Public                 bool       `json:"public"`
	AllowRoleMentions      bool       `json:"allow_role_mentions"`
	DisableDefaultResponse bool       `json:"disable_default_response"`
}

// PermissionCheckAction stops the action set unless the member has the
// permissions and roles listed.
type PermissionCheckAction struct {
	ID                     int         `json:"id"`
	Type                   ActionType  `json:"type"`
	Permissions            string      `json:"permissions"`
	RoleIDs                []Snowflake `json:"role_ids"`
	DisableDefaultResponse bool        `json:"disable_default_response"`
}

func (a *TextResponseAction) ActionID() int         { return a.ID }
func (a *SavedMessageResponseAction) ActionID() int { return a.ID }
func (a *RoleAction) ActionID() int                 { return a.ID }
func (a *PermissionCheckAction) ActionID() int      { return a.ID }

func (a *TextResponseAction) ActionType() ActionType         { return a.Type }
func (a *SavedMessageResponseAction) ActionType() ActionType { return a.Type }
func (a *RoleAction) ActionType() ActionType                 { return a.Type }
func (a *PermissionCheckAction) ActionType() ActionType      { return ActionTypePermissionCheck }

func (a *TextResponseAction) setActionID(id int)         { a.ID = id }
func (a *SavedMessageResponseAction) setActionID(id int) { a.ID = id }
func (a *RoleAction) setActionID(id int)                 { a.ID = id }
func (a *PermissionCheckAction) setActionID(id int)      { a.ID = id }

// NewAction builds an action of type t with that variant's default fields.
// It returns nil for unknown types.
func NewAction(id int, t ActionType) Action {
	switch t {
	case ActionTypeTextResponse, ActionTypeTextDM, ActionTypeTextEdit:
		return &TextResponseAction{ID: id, Type: t}
	case ActionTypeSavedMessageResponse, ActionTypeSavedMessageDM, ActionTypeSavedMessageEdit:
		return &SavedMessageResponseAction{ID: id, Type: t}
	case ActionTypeToggleRole, ActionTypeAddRole, ActionTypeRemoveRole:
		return &RoleAction{ID: id, Type: t}
	case ActionTypePermissionCheck:
		return &PermissionCheckAction{ID: id, Type: t, RoleIDs: []Snowflake{}}
	default:
		return nil
	}
}
