// Copyright 2025 The Trailwatch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	formatJSON    = "json"
	formatConsole = "console"
)

// Options configures the agent logger. The level is the only field that can
// change at runtime (via SetLevel); everything else is fixed at Init.
type Options struct {
	// Name is prepended to every entry, typically the component name.
	Name string `json:"name,omitempty" mapstructure:"name"`

	// Level is the minimum level to emit: debug, info, warn or error.
	Level string `json:"level,omitempty" mapstructure:"level"`

	// Format selects the encoder, json or console.
	Format string `json:"format,omitempty" mapstructure:"format"`

	// EnableColor colorizes console output. Leave off when the agent logs
	// to a journal or file.
	EnableColor bool `json:"enable-color,omitempty" mapstructure:"enable-color"`

	// DisableCaller drops the file:line annotation.
	DisableCaller bool `json:"disable-caller,omitempty" mapstructure:"disable-caller"`

	// CallerSkip adjusts caller annotation for wrappers around this package.
	CallerSkip int `json:"caller-skip,omitempty" mapstructure:"caller-skip"`

	// OutputPaths lists the sinks, "stdout"/"stderr" or file paths.
	OutputPaths []string `json:"output-paths,omitempty" mapstructure:"output-paths"`
}

// NewOptions returns the agent defaults: info-level console output on
// stdout, no color.
func NewOptions() *Options {
	return &Options{
		Level:       "info",
		Format:      formatConsole,
		CallerSkip:  2,
		OutputPaths: []string{"stdout"},
	}
}

// Validate checks the level and format names.
func (o *Options) Validate() []error {
	var errs []error
	switch o.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", o.Level))
	}
	switch o.Format {
	case formatJSON, formatConsole:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", o.Format))
	}
	return errs
}

// AddFlags binds the options to flags under the log. prefix.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Name, "log.name", o.Name, "Component name prepended to every log entry.")
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level (debug, info, warn, error).")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log encoder (json or console).")
	fs.BoolVar(&o.EnableColor, "log.enable-color", o.EnableColor, "Colorize console output.")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Drop the file:line annotation.")
	fs.IntVar(&o.CallerSkip, "log.caller-skip", o.CallerSkip, "Caller frames to skip, for wrappers around the logger.")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Log sinks (stdout, stderr, or file paths).")
}
