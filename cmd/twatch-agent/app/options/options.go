// Package options aggregates the per-concern option groups of the agent.
package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/pkg/log"
	genericoptions "github.com/trailwatch-io/trailwatch/pkg/options"
)

// AgentOptions is everything the agent can be configured with, from flags,
// a config file or TWATCH_* environment variables.
type AgentOptions struct {
	Log     *log.Options                   `json:"log" mapstructure:"log"`
	Rest    *genericoptions.RestOptions    `json:"rest" mapstructure:"rest"`
	Push    *genericoptions.PushOptions    `json:"push" mapstructure:"push"`
	Media   *genericoptions.MediaOptions   `json:"media" mapstructure:"media"`
	Http    *genericoptions.HttpOptions    `json:"http" mapstructure:"http"`
	Session *genericoptions.SessionOptions `json:"session" mapstructure:"session"`
}

// NewAgentOptions creates an AgentOptions object with default parameters.
func NewAgentOptions() *AgentOptions {
	return &AgentOptions{
		Log:     log.NewOptions(),
		Rest:    genericoptions.NewRestOptions(),
		Push:    genericoptions.NewPushOptions(),
		Media:   genericoptions.NewMediaOptions(),
		Http:    genericoptions.NewHttpOptions(),
		Session: genericoptions.NewSessionOptions(),
	}
}

// AddFlags binds every option group to the flag set.
func (o *AgentOptions) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.Rest.AddFlags(fs)
	o.Push.AddFlags(fs)
	o.Media.AddFlags(fs)
	o.Http.AddFlags(fs)
	o.Session.AddFlags(fs)
}

// Validate checks every option group and aggregates the failures.
func (o *AgentOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.Rest.Validate()...)
	errs = append(errs, o.Push.Validate()...)
	errs = append(errs, o.Media.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Session.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

// Identity returns the configured session credentials.
func (o *AgentOptions) Identity() model.SessionIdentity {
	return model.SessionIdentity{
		Token:  o.Session.Token,
		Client: o.Session.Client,
		UID:    o.Session.UID,
	}
}
