// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller is the chat session controller.
//
// It sits between the user interfaces and the backend: user actions become
// session events, backend calls run as effects that return events, and
// Dispatch folds them into the session state. Mapping answers are rendered
// once onto an internal record map and replayed onto every attached surface.
//
// # Usage
//
//	ctl := controller.New(client, controller.Options{Greeting: "hi", Logger: log})
//	ctl.Attach(canvas)
//	snapshot, ok := ctl.Submit("parks in Leeds")
//	if ok {
//	    ctl.Dispatch(ctl.Exchange(ctx, snapshot))
//	}
package controller
