// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat session state and its transitions.
//
// State is a plain value. Everything that changes it is an Event, and
// Reduce maps (State, Event) to the next State without side effects.
// Network calls live in package chat, which turns their results into
// events.
//
// # Key Types
//
//   - State: input, transcript, session id, prior sessions, mode,
//     suggestion, current FeatureSet
//   - Event: InputChanged, Submitted, AnswerReceived, ExchangeFailed,
//     NewSessionStarted, SessionsLoaded, HistoryLoaded, SessionCommitted, ...
//
// # Usage
//
//	s := session.Initial(model.ModeGeneration, nil)
//	s = session.Reduce(s, session.Submitted{Message: msg})
package session
