// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"testing"

	"github.com/jeranaias/ollachat/internal/config"
)

func TestUseLineMode(t *testing.T) {
	if !useLineMode(config.UIModeLine) {
		t.Error("line mode should select the line front end")
	}
	if useLineMode(config.UIModeTUI) {
		t.Error("tui mode should select the chat window")
	}
}
