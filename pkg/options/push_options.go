package options

import (
	"errors"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*PushOptions)(nil)

// PushOptions configures the push-channel websocket connection.
type PushOptions struct {
	// URL is the cable endpoint, e.g. wss://backend.example.com/cable.
	URL string `json:"url" mapstructure:"url"`

	// ConnectionType is sent as a query parameter so the backend can tell
	// frontend sessions from device sessions.
	ConnectionType string `json:"connection-type" mapstructure:"connection-type"`

	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration `json:"handshake-timeout" mapstructure:"handshake-timeout"`

	// QueueSize is the capacity of the inbound envelope channel between the
	// connection reader and the dispatcher.
	QueueSize int `json:"queue-size" mapstructure:"queue-size"`
}

// NewPushOptions creates a PushOptions object with default parameters.
func NewPushOptions() *PushOptions {
	return &PushOptions{
		URL:              "wss://backend.trailwatch.io/cable",
		ConnectionType:   "frontend",
		HandshakeTimeout: 10 * time.Second,
		QueueSize:        64,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *PushOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.URL == "" {
		errs = append(errs, errors.New("push.url is required"))
	} else if u, err := url.Parse(o.URL); err != nil {
		errs = append(errs, err)
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		errs = append(errs, errors.New("push.url must use the ws or wss scheme"))
	}
	if o.QueueSize <= 0 {
		errs = append(errs, errors.New("push.queue-size must be positive"))
	}

	return errs
}

// AddFlags adds flags for PushOptions to the specified FlagSet.
func (o *PushOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.URL, "push.url", o.URL, "The push-channel websocket endpoint.")
	fs.StringVar(&o.ConnectionType, "push.connection-type", o.ConnectionType, "Connection type reported to the backend.")
	fs.DurationVar(&o.HandshakeTimeout, "push.handshake-timeout", o.HandshakeTimeout, "Timeout for the websocket handshake.")
	fs.IntVar(&o.QueueSize, "push.queue-size", o.QueueSize, "Capacity of the inbound envelope queue.")
}
