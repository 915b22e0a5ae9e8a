package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MediaOptions)(nil)

// MediaOptions configures the media download workflow timers.
type MediaOptions struct {
	// VideoTimeout is the bounded wait after a video request before the
	// workflow declares the clip unavailable.
	VideoTimeout time.Duration `json:"video-timeout" mapstructure:"video-timeout"`

	// RefetchDelay is the short fixed delay before the best-effort media
	// list re-fetch that follows a successful request call.
	RefetchDelay time.Duration `json:"refetch-delay" mapstructure:"refetch-delay"`

	// ReadStateInterval is the per-trailer read-state refresh period while a
	// trailer is selected.
	ReadStateInterval time.Duration `json:"read-state-interval" mapstructure:"read-state-interval"`
}

// NewMediaOptions creates a MediaOptions object with default parameters.
func NewMediaOptions() *MediaOptions {
	return &MediaOptions{
		VideoTimeout:      60 * time.Second,
		RefetchDelay:      time.Second,
		ReadStateInterval: 10 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MediaOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.VideoTimeout <= 0 {
		errs = append(errs, errors.New("media.video-timeout must be positive"))
	}
	if o.ReadStateInterval <= 0 {
		errs = append(errs, errors.New("media.read-state-interval must be positive"))
	}

	return errs
}

// AddFlags adds flags for MediaOptions to the specified FlagSet.
func (o *MediaOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.VideoTimeout, "media.video-timeout", o.VideoTimeout, "Bounded wait before a video request is declared unavailable.")
	fs.DurationVar(&o.RefetchDelay, "media.refetch-delay", o.RefetchDelay, "Delay before the post-request media list re-fetch.")
	fs.DurationVar(&o.ReadStateInterval, "media.read-state-interval", o.ReadStateInterval, "Read-state refresh period for the selected trailer.")
}
