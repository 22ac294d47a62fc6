// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	encMode = em

	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR dec mode: %v", err))
	}
	decMode = dm
}

// Portable reports whether v is plain data a snapshot can hold: nil, bool,
// float64, string, and slices or string maps of those.
func Portable(v any) bool {
	switch x := v.(type) {
	case nil, bool, float64, string:
		return true
	case []any:
		for _, item := range x {
			if !Portable(item) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, item := range x {
			if !Portable(item) {
				return false
			}
		}
		return true
	}
	return false
}

// EncodeBindings serializes the portable bindings. Other values (functions,
// futures, host objects) are skipped.
func EncodeBindings(bindings map[string]any) ([]byte, error) {
	kept := make(map[string]any, len(bindings))
	for k, v := range bindings {
		if Portable(v) {
			kept[k] = v
		}
	}
	return encMode.Marshal(kept)
}

// DecodeBindings deserializes bindings written by EncodeBindings.
func DecodeBindings(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}
