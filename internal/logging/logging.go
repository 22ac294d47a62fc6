// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package logging wires jspy's named loggers to commonlog.
package logging

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Logger names used across the module.
const (
	Runtime = "jspy.runtime"
	Import  = "jspy.import"
	Store   = "jspy.store"
	CLI     = "jspy.cli"
)

// Configure sets the global verbosity and optional log file. Verbosity 0
// keeps only errors, each step up adds a level.
func Configure(verbosity int, path string) {
	if path == "" {
		commonlog.Configure(verbosity, nil)
		return
	}
	commonlog.Configure(verbosity, &path)
}

// Get returns the named logger.
func Get(name string) commonlog.Logger {
	return commonlog.GetLogger(name)
}
