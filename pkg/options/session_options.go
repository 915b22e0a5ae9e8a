package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SessionOptions)(nil)

// SessionOptions carries the backend session credential triple. All three
// parts must be present for the agent to authenticate; left empty, the
// agent starts anonymous and waits for a sign-in.
type SessionOptions struct {
	Token  string `json:"token" mapstructure:"token"`
	Client string `json:"client" mapstructure:"client"`
	UID    string `json:"uid" mapstructure:"uid"`
}

// NewSessionOptions creates an empty SessionOptions object.
func NewSessionOptions() *SessionOptions {
	return &SessionOptions{}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *SessionOptions) Validate() []error {
	if o == nil {
		return nil
	}

	partial := (o.Token != "" || o.Client != "" || o.UID != "") &&
		(o.Token == "" || o.Client == "" || o.UID == "")
	if partial {
		return []error{errors.New("session credentials must set all of token, client and uid, or none")}
	}
	return nil
}

// AddFlags adds flags for SessionOptions to the specified FlagSet.
func (o *SessionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Token, "session.token", o.Token, "Backend access token.")
	fs.StringVar(&o.Client, "session.client", o.Client, "Backend client identifier.")
	fs.StringVar(&o.UID, "session.uid", o.UID, "Backend account uid.")
}
