// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// MODE TYPE
// =============================================================================

// Mode selects how the backend treats an outgoing message. It is sent as the
// "option" field of every request and decides how the response is read.
type Mode string

const (
	ModeGeneration  Mode = "generation"
	ModeRetrieval   Mode = "retrieval"
	ModeComparative Mode = "comparative"
	ModeMapping     Mode = "mapping"
)

// AllModes lists modes in the order the UI cycles through them.
var AllModes = []Mode{ModeGeneration, ModeRetrieval, ModeComparative, ModeMapping}

// String returns the wire representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// DisplayName returns a human-readable label for the mode.
func (m Mode) DisplayName() string {
	switch m {
	case ModeGeneration:
		return "Generation"
	case ModeRetrieval:
		return "Retrieval"
	case ModeComparative:
		return "Comparative"
	case ModeMapping:
		return "Mapping"
	default:
		return string(m)
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, known := range AllModes {
		if m == known {
			return true
		}
	}
	return false
}

// Next returns the mode after m in AllModes, wrapping around.
// Unknown modes advance to the first mode.
func (m Mode) Next() Mode {
	for i, known := range AllModes {
		if m == known {
			return AllModes[(i+1)%len(AllModes)]
		}
	}
	return AllModes[0]
}

// ParseMode parses a mode name case-insensitively. Unique prefixes are
// accepted so "/mode map" works.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("empty mode")
	}
	var match Mode
	for _, known := range AllModes {
		if string(known) == s {
			return known, nil
		}
		if strings.HasPrefix(string(known), s) {
			if match != "" {
				return "", fmt.Errorf("ambiguous mode %q", s)
			}
			match = known
		}
	}
	if match == "" {
		return "", fmt.Errorf("unknown mode %q (want one of generation, retrieval, comparative, mapping)", s)
	}
	return match, nil
}
