package models

import (
	"fmt"
	"slices"
	"strconv"
)

// Which component types each container-like parent accepts as direct
// children. Section accessories are handled by AllowsAccessory.
var childTypes = map[ComponentType][]ComponentType{
	ComponentTypeActionRow: {ComponentTypeButton, ComponentTypeSelectMenu},
	ComponentTypeSection:   {ComponentTypeTextDisplay},
	ComponentTypeContainer: {
		ComponentTypeActionRow,
		ComponentTypeSection,
		ComponentTypeTextDisplay,
		ComponentTypeMediaGallery,
		ComponentTypeFile,
		ComponentTypeSeparator,
	},
}

var (
	legacyTopLevel = []ComponentType{ComponentTypeActionRow}
	v2TopLevel     = []ComponentType{
		ComponentTypeActionRow,
		ComponentTypeSection,
		ComponentTypeTextDisplay,
		ComponentTypeMediaGallery,
		ComponentTypeFile,
		ComponentTypeSeparator,
		ComponentTypeContainer,
	}
)

// AllowsChild reports whether a component of type child may sit directly
// under a parent of type parent.
func AllowsChild(parent, child ComponentType) bool {
	return slices.Contains(childTypes[parent], child)
}

// AllowsAccessory reports whether t may be a section accessory.
func AllowsAccessory(t ComponentType) bool {
	return t == ComponentTypeButton || t == ComponentTypeThumbnail
}

// AllowsTopLevel reports whether t may be a top-level component. Legacy
// messages only take action rows.
func AllowsTopLevel(t ComponentType, componentsV2 bool) bool {
	if componentsV2 {
		return slices.Contains(v2TopLevel, t)
	}
	return slices.Contains(legacyTopLevel, t)
}

// NestingError describes the first component in a subtree that sits under
// a parent that cannot hold it. Path is relative to the subtree root.
type NestingError struct {
	Path   string
	Parent ComponentType
	Child  ComponentType
}

func (e *NestingError) Error() string {
	return fmt.Sprintf("%s: component type %d not allowed in component type %d", e.Path, e.Child, e.Parent)
}

// CheckNesting walks the subtree under c and returns the first child that
// its parent does not accept, or nil.
func CheckNesting(c Component) *NestingError {
	return checkNesting(c, "")
}

func checkNesting(c Component, path string) *NestingError {
	if c == nil {
		return nil
	}
	parent := c.ComponentType()
	if s, ok := c.(*Section); ok && s.Accessory != nil {
		p := path + ".accessory"
		if !AllowsAccessory(s.Accessory.ComponentType()) {
			return &NestingError{Path: trimDot(p), Parent: parent, Child: s.Accessory.ComponentType()}
		}
	}
	children := Children(c)
	if children == nil {
		return nil
	}
	for i, child := range *children {
		if child == nil {
			continue
		}
		p := path + ".components[" + strconv.Itoa(i) + "]"
		if !AllowsChild(parent, child.ComponentType()) {
			return &NestingError{Path: trimDot(p), Parent: parent, Child: child.ComponentType()}
		}
		if err := checkNesting(child, p); err != nil {
			return err
		}
	}
	return nil
}

func trimDot(p string) string {
	if len(p) > 0 && p[0] == '.' {
		return p[1:]
	}
	return p
}
