// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"strings"
)

// namer maps program member names to HLSL identifiers. Linked names are
// already unique, but HLSL compares some identifiers without case and
// reserves its keywords, so each name is escaped and deduplicated
// case-insensitively.
type namer struct {
	// usedNames tracks names that have been generated (stored in lowercase).
	usedNames map[string]struct{}

	// names maps program names to the generated identifiers.
	names map[string]string

	counter uint32
}

func newNamer() *namer {
	n := &namer{
		usedNames: make(map[string]struct{}),
		names:     make(map[string]string),
	}
	n.reserve(StreamsType)
	n.reserve(StreamsVar)
	return n
}

// call returns the identifier for a program name, generating it on first
// use.
func (n *namer) call(base string) string {
	if name, ok := n.names[base]; ok {
		return name
	}
	escaped := Escape(base)
	name := escaped
	for n.isUsed(name) {
		n.counter++
		name = fmt.Sprintf("%s_%d", escaped, n.counter)
	}
	n.reserve(name)
	n.names[base] = name
	return name
}

// lookup maps a name written in the program: generated identifiers for
// declared members, anything else unchanged.
func (n *namer) lookup(name string) string {
	if mapped, ok := n.names[name]; ok {
		return mapped
	}
	return name
}

func (n *namer) isUsed(name string) bool {
	_, used := n.usedNames[strings.ToLower(name)]
	return used
}

// reserve marks a name as used without mapping anything to it.
func (n *namer) reserve(name string) {
	n.usedNames[strings.ToLower(name)] = struct{}{}
}
