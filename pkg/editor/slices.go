package editor

import "slices"

func inRange[T any](s []T, i int) bool {
	return i >= 0 && i < len(s)
}

func moveUp[T any](s []T, i int) bool {
	if i <= 0 || i >= len(s) {
		return false
	}
	s[i-1], s[i] = s[i], s[i-1]
	return true
}

func moveDown[T any](s []T, i int) bool {
	if i < 0 || i >= len(s)-1 {
		return false
	}
	s[i], s[i+1] = s[i+1], s[i]
	return true
}

// removeAt deletes s[i]. It reports false when i is out of range.
func removeAt[T any](s *[]T, i int) (T, bool) {
	var zero T
	if !inRange(*s, i) {
		return zero, false
	}
	v := (*s)[i]
	*s = slices.Delete(*s, i, i+1)
	return v, true
}

// insertAfter places v right after s[i].
func insertAfter[T any](s *[]T, i int, v T) {
	*s = slices.Insert(*s, i+1, v)
}

// set writes v through p and reports whether the value changed.
func set[T comparable](p *T, v T) bool {
	if *p == v {
		return false
	}
	*p = v
	return true
}
