package options

import (
	"errors"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RestOptions)(nil)

// RestOptions configures the backend REST gateway client.
type RestOptions struct {
	// BaseURL is the backend API root, e.g. https://backend.example.com/api/v1.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// Timeout bounds every REST round-trip.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewRestOptions creates a RestOptions object with default parameters.
func NewRestOptions() *RestOptions {
	return &RestOptions{
		BaseURL: "https://backend.trailwatch.io/api/v1",
		Timeout: 30 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *RestOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.BaseURL == "" {
		errs = append(errs, errors.New("rest.base-url is required"))
	} else if _, err := url.Parse(o.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if o.Timeout <= 0 {
		errs = append(errs, errors.New("rest.timeout must be positive"))
	}

	return errs
}

// AddFlags adds flags for RestOptions to the specified FlagSet.
func (o *RestOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.BaseURL, "rest.base-url", o.BaseURL, "The backend REST API root URL.")
	fs.DurationVar(&o.Timeout, "rest.timeout", o.Timeout, "Timeout for a single REST round-trip.")
}
