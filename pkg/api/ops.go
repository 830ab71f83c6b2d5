package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
)

var (
	errUnknownOp    = errors.New("unknown operation")
	errMissingValue = errors.New("value is required")
	errLimitReached = errors.New("limit reached")
	errWrongScope   = errors.New("operation not available in this scope")
)

// ScopeCommands routes action operations to the custom command store.
const ScopeCommands = "commands"

// OpRequest is one editing command. Which addressing fields matter depends
// on Op: Embed and Field address embeds, Path and Parent the component tree,
// Index an option, gallery item or action, Key an action set.
type OpRequest struct {
	Op     string          `json:"op"`
	Scope  string          `json:"scope,omitempty"`
	Embed  int             `json:"embed"`
	Field  int             `json:"field"`
	Path   editor.Path     `json:"path"`
	Parent editor.Path     `json:"parent"`
	Index  int             `json:"index"`
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value,omitempty"`
}

// opError is an op failure caused by the request rather than the server.
type opError struct {
	status int
	err    error
}

func (e *opError) Error() string { return e.err.Error() }
func (e *opError) Unwrap() error { return e.err }

func badRequest(err error) error { return &opError{status: 400, err: err} }

// actionEditor is what the message store and the command store share.
type actionEditor interface {
	AddAction(key string, t models.ActionType) int
	ClearActions(key string)
	MoveActionUp(key string, j int)
	MoveActionDown(key string, j int)
	DuplicateAction(key string, j int)
	DeleteAction(key string, j int)
	SetActionType(key string, j int, t models.ActionType)
	SetActionText(key string, j int, text string)
	SetActionTargetID(key string, j int, target string)
	SetActionPublic(key string, j int, public bool)
	SetActionAllowRoleMentions(key string, j int, allow bool)
	SetActionDisableDefaultResponse(key string, j int, disable bool)
	SetActionPermissions(key string, j int, permissions string)
	SetActionRoleIDs(key string, j int, roles []models.Snowflake)
	GetActionSet(key string) *models.ActionSet
}

type target struct {
	msg     *editor.Store
	actions actionEditor
	// canAddAction is nil for stores without an action limit.
	canAddAction func(key string) bool
}

type opFunc func(t *target, r *OpRequest) (any, error)

func value[T any](r *OpRequest) (T, error) {
	var v T
	if len(r.Value) == 0 {
		return v, badRequest(errMissingValue)
	}
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return v, badRequest(fmt.Errorf("invalid value for %s: %w", r.Op, err))
	}
	return v, nil
}

// optional decodes Value when present and returns nil otherwise.
func optional[T any](r *OpRequest) (*T, error) {
	if len(r.Value) == 0 || string(r.Value) == "null" {
		return nil, nil
	}
	v, err := value[T](r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func messageOnly(fn func(s *editor.Store, r *OpRequest) (any, error)) opFunc {
	return func(t *target, r *OpRequest) (any, error) {
		if t.msg == nil {
			return nil, badRequest(errWrongScope)
		}
		return fn(t.msg, r)
	}
}

func messageSetter[T any](fn func(*editor.Store, T)) opFunc {
	return messageOnly(func(s *editor.Store, r *OpRequest) (any, error) {
		v, err := value[T](r)
		if err != nil {
			return nil, err
		}
		fn(s, v)
		return nil, nil
	})
}

func embedOp(fn func(*editor.Store, int)) opFunc {
	return messageOnly(func(s *editor.Store, r *OpRequest) (any, error) {
		fn(s, r.Embed)
		return nil, nil
	})
}

func embedSetter[T any](fn func(*editor.Store, int, T)) opFunc {
	return messageOnly(func(s *editor.Store, r *OpRequest) (any, error) {
		v, err := value[T](r)
		if err != nil {
			return nil, err
		}
		fn(s, r.Embed, v)
		return nil, nil
	})
}

func fieldOp(fn func(*editor.Store, int, int)) opFunc {
	return messageOnly(func(s *editor.Store, r *OpRequest) (any, error) {
		fn(s, r.Embed, r.Field)
		return nil, nil
	})
}

func fieldSetter[T any](fn func(*editor.Store, int, int, T)) opFunc {
	return messageOnly(func(s *editor.Store, r *OpRequest) (any, error) {
		v, err := value[T](r)
		if err != nil {
			return nil, err
		}
		fn(s, r.Embed, r.Field, v)
		return nil, nil
	})
}

func pathOp(fn func(*editor.Store, editor.Path)) opFunc {
	return messageOnly(func(s *editor.Store, r *OpRequest) (any, error) {
		fn(s, r.Path)
		return nil, nil
	})
}

func pathSetter[T any](fn func(*editor.Store, editor.Path, T)) opFunc {
	return messageOnly(func(s *editor.Store, r *OpRequest) (any, error) {
		v, err := value[T](r)
		if err != nil {
			return nil, err
		}
		fn(s, r.Path, v)
		return nil, nil
	})
}

func itemOp(fn func(*editor.Store, editor.Path, int)) opFunc {
	return messageOnly(func(s *editor.Store, r *OpRequest) (any, error) {
		fn(s, r.Path, r.Index)
		return nil, nil
	})
}

func itemSetter[T any](fn func(*editor.Store, editor.Path, int, T)) opFunc {
	return messageOnly(func(s *editor.Store, r *OpRequest) (any, error) {
		v, err := value[T](r)
		if err != nil {
			return nil, err
		}
		fn(s, r.Path, r.Index, v)
		return nil, nil
	})
}

func actionOp(fn func(actionEditor, string, int)) opFunc {
	return func(t *target, r *OpRequest) (any, error) {
		fn(t.actions, r.Key, r.Index)
		return nil, nil
	}
}

func actionSetter[T any](fn func(actionEditor, string, int, T)) opFunc {
	return func(t *target, r *OpRequest) (any, error) {
		v, err := value[T](r)
		if err != nil {
			return nil, err
		}
		fn(t.actions, r.Key, r.Index, v)
		return nil, nil
	}
}

func added(id int) (any, error) {
	return map[string]int{"id": id}, nil
}

// parseValue decodes Value the way documents are decoded, so numbers keep
// their precision for the schema parsers.
func parseValue(r *OpRequest) (any, error) {
	if len(r.Value) == 0 {
		return map[string]any{}, nil
	}
	v, err := schema.Decode(r.Value)
	if err != nil {
		return nil, badRequest(err)
	}
	return v, nil
}

func addEmbed(s *editor.Store, r *OpRequest) (any, error) {
	if !s.CanAddEmbed() {
		return nil, &opError{status: 409, err: fmt.Errorf("%w: embeds", errLimitReached)}
	}
	v, err := parseValue(r)
	if err != nil {
		return nil, err
	}
	e, err := schema.ParseEmbedValue(v, s.Generator())
	if err != nil {
		return nil, badRequest(fmt.Errorf("failed to parse embed: %w", err))
	}
	return added(s.AddEmbed(e))
}

func addEmbedField(s *editor.Store, r *OpRequest) (any, error) {
	if !s.CanAddEmbedField(r.Embed) {
		return nil, &opError{status: 409, err: fmt.Errorf("%w: embed fields", errLimitReached)}
	}
	f, err := optional[models.EmbedField](r)
	if err != nil {
		return nil, err
	}
	return added(s.AddEmbedField(r.Embed, f))
}

func parseComponent(s *editor.Store, r *OpRequest) (models.Component, error) {
	if len(r.Value) == 0 {
		return nil, badRequest(errMissingValue)
	}
	v, err := parseValue(r)
	if err != nil {
		return nil, err
	}
	c, err := schema.ParseComponentValue(v, s.Generator())
	if err != nil {
		return nil, badRequest(fmt.Errorf("failed to parse component: %w", err))
	}
	return c, nil
}

func addComponent(s *editor.Store, r *OpRequest) (any, error) {
	if !s.CanAddComponent(r.Parent) {
		return nil, &opError{status: 409, err: fmt.Errorf("%w: components", errLimitReached)}
	}
	c, err := parseComponent(s, r)
	if err != nil {
		return nil, err
	}
	if !s.AcceptsComponent(r.Parent, c) {
		return nil, badRequest(fmt.Errorf("component type %d not allowed here", c.ComponentType()))
	}
	return added(s.AddComponent(r.Parent, c))
}

func setSectionAccessory(s *editor.Store, r *OpRequest) (any, error) {
	c, err := parseComponent(s, r)
	if err != nil {
		return nil, err
	}
	s.SetSectionAccessory(r.Path, c)
	return nil, nil
}

func addSelectMenuOption(s *editor.Store, r *OpRequest) (any, error) {
	if !s.CanAddSelectMenuOption(r.Path) {
		return nil, &opError{status: 409, err: fmt.Errorf("%w: select menu options", errLimitReached)}
	}
	opt, err := optional[models.SelectMenuOption](r)
	if err != nil {
		return nil, err
	}
	return added(s.AddSelectMenuOption(r.Path, opt))
}

func addGalleryItem(s *editor.Store, r *OpRequest) (any, error) {
	item, err := optional[models.MediaGalleryItem](r)
	if err != nil {
		return nil, err
	}
	return added(s.AddGalleryItem(r.Path, item))
}

func addAction(t *target, r *OpRequest) (any, error) {
	typ, err := value[models.ActionType](r)
	if err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, badRequest(fmt.Errorf("unknown action type %d", typ))
	}
	if t.canAddAction != nil && !t.canAddAction(r.Key) {
		return nil, &opError{status: 409, err: fmt.Errorf("%w: actions", errLimitReached)}
	}
	return added(t.actions.AddAction(r.Key, typ))
}

func clearActionSet(t *target, r *OpRequest) (any, error) {
	t.actions.ClearActions(r.Key)
	return nil, nil
}

var ops = map[string]opFunc{
	"SetContent":                     messageSetter((*editor.Store).SetContent),
	"SetUsername":                    messageSetter((*editor.Store).SetUsername),
	"SetAvatarURL":                   messageSetter((*editor.Store).SetAvatarURL),
	"SetThreadName":                  messageSetter((*editor.Store).SetThreadName),
	"SetTTS":                         messageSetter((*editor.Store).SetTTS),
	"SetComponentsV2Enabled":         messageSetter((*editor.Store).SetComponentsV2Enabled),
	"AddEmbed":                       messageOnly(addEmbed),
	"ClearEmbeds":                    messageOnly(func(s *editor.Store, _ *OpRequest) (any, error) { s.ClearEmbeds(); return nil, nil }),
	"MoveEmbedUp":                    embedOp((*editor.Store).MoveEmbedUp),
	"MoveEmbedDown":                  embedOp((*editor.Store).MoveEmbedDown),
	"DuplicateEmbed":                 embedOp((*editor.Store).DuplicateEmbed),
	"DeleteEmbed":                    embedOp((*editor.Store).DeleteEmbed),
	"SetEmbedTitle":                  embedSetter((*editor.Store).SetEmbedTitle),
	"SetEmbedDescription":            embedSetter((*editor.Store).SetEmbedDescription),
	"SetEmbedURL":                    embedSetter((*editor.Store).SetEmbedURL),
	"SetEmbedColor":                  embedSetter((*editor.Store).SetEmbedColor),
	"SetEmbedTimestamp":              embedSetter((*editor.Store).SetEmbedTimestamp),
	"SetEmbedAuthorName":             embedSetter((*editor.Store).SetEmbedAuthorName),
	"SetEmbedAuthorURL":              embedSetter((*editor.Store).SetEmbedAuthorURL),
	"SetEmbedAuthorIconURL":          embedSetter((*editor.Store).SetEmbedAuthorIconURL),
	"SetEmbedFooterText":             embedSetter((*editor.Store).SetEmbedFooterText),
	"SetEmbedFooterIconURL":          embedSetter((*editor.Store).SetEmbedFooterIconURL),
	"SetEmbedImageURL":               embedSetter((*editor.Store).SetEmbedImageURL),
	"SetEmbedThumbnailURL":           embedSetter((*editor.Store).SetEmbedThumbnailURL),
	"AddEmbedField":                  messageOnly(addEmbedField),
	"ClearEmbedFields":               embedOp((*editor.Store).ClearEmbedFields),
	"MoveEmbedFieldUp":               fieldOp((*editor.Store).MoveEmbedFieldUp),
	"MoveEmbedFieldDown":             fieldOp((*editor.Store).MoveEmbedFieldDown),
	"DuplicateEmbedField":            fieldOp((*editor.Store).DuplicateEmbedField),
	"DeleteEmbedField":               fieldOp((*editor.Store).DeleteEmbedField),
	"SetEmbedFieldName":              fieldSetter((*editor.Store).SetEmbedFieldName),
	"SetEmbedFieldValue":             fieldSetter((*editor.Store).SetEmbedFieldValue),
	"SetEmbedFieldInline":            fieldSetter((*editor.Store).SetEmbedFieldInline),
	"AddComponent":                   messageOnly(addComponent),
	"ClearComponents":                messageOnly(func(s *editor.Store, r *OpRequest) (any, error) { s.ClearComponents(r.Parent); return nil, nil }),
	"MoveComponentUp":                pathOp((*editor.Store).MoveComponentUp),
	"MoveComponentDown":              pathOp((*editor.Store).MoveComponentDown),
	"DuplicateComponent":             pathOp((*editor.Store).DuplicateComponent),
	"DeleteComponent":                pathOp((*editor.Store).DeleteComponent),
	"SetSectionAccessory":            messageOnly(setSectionAccessory),
	"SetButtonStyle":                 pathSetter((*editor.Store).SetButtonStyle),
	"SetButtonLabel":                 pathSetter((*editor.Store).SetButtonLabel),
	"SetButtonEmoji":                 pathSetter((*editor.Store).SetButtonEmoji),
	"SetButtonURL":                   pathSetter((*editor.Store).SetButtonURL),
	"SetButtonDisabled":              pathSetter((*editor.Store).SetButtonDisabled),
	"SetSelectMenuPlaceholder":       pathSetter((*editor.Store).SetSelectMenuPlaceholder),
	"SetSelectMenuDisabled":          pathSetter((*editor.Store).SetSelectMenuDisabled),
	"AddSelectMenuOption":            messageOnly(addSelectMenuOption),
	"ClearSelectMenuOptions":         pathOp((*editor.Store).ClearSelectMenuOptions),
	"MoveSelectMenuOptionUp":         itemOp((*editor.Store).MoveSelectMenuOptionUp),
	"MoveSelectMenuOptionDown":       itemOp((*editor.Store).MoveSelectMenuOptionDown),
	"DuplicateSelectMenuOption":      itemOp((*editor.Store).DuplicateSelectMenuOption),
	"DeleteSelectMenuOption":         itemOp((*editor.Store).DeleteSelectMenuOption),
	"SetSelectMenuOptionLabel":       itemSetter((*editor.Store).SetSelectMenuOptionLabel),
	"SetSelectMenuOptionDescription": itemSetter((*editor.Store).SetSelectMenuOptionDescription),
	"SetSelectMenuOptionEmoji":       itemSetter((*editor.Store).SetSelectMenuOptionEmoji),
	"SetTextDisplayContent":          pathSetter((*editor.Store).SetTextDisplayContent),
	"SetThumbnailURL":                pathSetter((*editor.Store).SetThumbnailURL),
	"SetThumbnailDescription":        pathSetter((*editor.Store).SetThumbnailDescription),
	"SetThumbnailSpoiler":            pathSetter((*editor.Store).SetThumbnailSpoiler),
	"AddGalleryItem":                 messageOnly(addGalleryItem),
	"MoveGalleryItemUp":              itemOp((*editor.Store).MoveGalleryItemUp),
	"MoveGalleryItemDown":            itemOp((*editor.Store).MoveGalleryItemDown),
	"DuplicateGalleryItem":           itemOp((*editor.Store).DuplicateGalleryItem),
	"DeleteGalleryItem":              itemOp((*editor.Store).DeleteGalleryItem),
	"SetGalleryItemURL":              itemSetter((*editor.Store).SetGalleryItemURL),
	"SetGalleryItemDescription":      itemSetter((*editor.Store).SetGalleryItemDescription),
	"SetGalleryItemSpoiler":          itemSetter((*editor.Store).SetGalleryItemSpoiler),
	"SetFileURL":                     pathSetter((*editor.Store).SetFileURL),
	"SetFileSpoiler":                 pathSetter((*editor.Store).SetFileSpoiler),
	"SetSeparatorDivider":            pathSetter((*editor.Store).SetSeparatorDivider),
	"SetSeparatorSpacing":            pathSetter((*editor.Store).SetSeparatorSpacing),
	"SetContainerAccentColor":        pathSetter((*editor.Store).SetContainerAccentColor),
	"SetContainerSpoiler":            pathSetter((*editor.Store).SetContainerSpoiler),

	"AddAction":                       addAction,
	"ClearActions":                    clearActionSet,
	"MoveActionUp":                    actionOp(actionEditor.MoveActionUp),
	"MoveActionDown":                  actionOp(actionEditor.MoveActionDown),
	"DuplicateAction":                 actionOp(actionEditor.DuplicateAction),
	"DeleteAction":                    actionOp(actionEditor.DeleteAction),
	"SetActionType":                   actionSetter(actionEditor.SetActionType),
	"SetActionText":                   actionSetter(actionEditor.SetActionText),
	"SetActionTargetID":               actionSetter(actionEditor.SetActionTargetID),
	"SetActionPublic":                 actionSetter(actionEditor.SetActionPublic),
	"SetActionAllowRoleMentions":      actionSetter(actionEditor.SetActionAllowRoleMentions),
	"SetActionDisableDefaultResponse": actionSetter(actionEditor.SetActionDisableDefaultResponse),
	"SetActionPermissions":            actionSetter(actionEditor.SetActionPermissions),
	"SetActionRoleIDs":                actionSetter(actionEditor.SetActionRoleIDs),
}

// dispatch runs r against t.
func dispatch(t *target, r *OpRequest) (any, error) {
	fn, ok := ops[r.Op]
	if !ok {
		return nil, badRequest(fmt.Errorf("%w: %q", errUnknownOp, r.Op))
	}
	return fn(t, r)
}
