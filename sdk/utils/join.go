// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"reflect"
	"strings"
)

const DefaultSeparator = ","

// Labeled is implemented by archive objects that have a display label
// (subjects, packages, ...).
type Labeled interface {
	Label() string
}

// Join flattens an identifier set into one separator-joined string.
// A string is returned as is. Slices are joined in order; if the first
// element is Labeled, labels are used. ok is false for nil or empty input.
func Join(values any, sep string) (string, bool) {
	switch v := values.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return strings.Join(v, sep), true
	case []Labeled:
		if len(v) == 0 {
			return "", false
		}
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = labelOf(x)
		}
		return strings.Join(parts, sep), true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		_, labeled := v[0].(Labeled)
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = itemString(x, labeled)
		}
		return strings.Join(parts, sep), true
	case Labeled:
		return labelOf(v), true
	default:
		rv := reflect.ValueOf(values)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return fmt.Sprint(v), true
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return Join(items, sep)
	}
}

// JoinOrEmpty is Join with the absent case folded into "".
func JoinOrEmpty(values any, sep string) string {
	s, _ := Join(values, sep)
	return s
}

// labelOf is "" for nil values, including typed nil pointers.
func labelOf(l Labeled) string {
	if l == nil {
		return ""
	}
	if rv := reflect.ValueOf(l); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ""
	}
	return l.Label()
}

func itemString(x any, labeled bool) string {
	if x == nil {
		return ""
	}
	if labeled {
		if l, ok := x.(Labeled); ok {
			return labelOf(l)
		}
	}
	if s, ok := x.(string); ok {
		return s
	}
	return fmt.Sprint(x)
}
