package firmware

import (
	"fmt"
)

// ReleaseChannel is the distribution track a firmware image belongs to.
// It is part of both the storage layout and the download URL:
// images and manifests of a channel live under "<root>/<channel>/sysupgrade/".
type ReleaseChannel string

const (
	// ReleaseChannelStable is the track of images recommended for all nodes.
	ReleaseChannelStable = ReleaseChannel("stable")

	// ReleaseChannelBeta is the track of release candidates.
	ReleaseChannelBeta = ReleaseChannel("beta")

	// ReleaseChannelExperimental is the track of untested nightly images.
	ReleaseChannelExperimental = ReleaseChannel("experimental")
)

// ReleaseChannels returns all known release channels.
func ReleaseChannels() []ReleaseChannel {
	return []ReleaseChannel{
		ReleaseChannelStable,
		ReleaseChannelBeta,
		ReleaseChannelExperimental,
	}
}

// ErrUnknownReleaseChannel implements "error", for the description see Error.
type ErrUnknownReleaseChannel struct {
	Value string
}

func (err ErrUnknownReleaseChannel) Error() string {
	return fmt.Sprintf("unknown release channel '%s' (expected one of: stable, beta, experimental)", err.Value)
}

// String implements fmt.Stringer.
func (ch ReleaseChannel) String() string {
	return string(ch)
}

// IsValid returns true if the channel is one of the known tracks.
func (ch ReleaseChannel) IsValid() bool {
	switch ch {
	case ReleaseChannelStable, ReleaseChannelBeta, ReleaseChannelExperimental:
		return true
	}
	return false
}

// Set implements flag.Value.
func (ch *ReleaseChannel) Set(in string) error {
	candidate := ReleaseChannel(in)
	if !candidate.IsValid() {
		return ErrUnknownReleaseChannel{Value: in}
	}
	*ch = candidate
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (ch *ReleaseChannel) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return ch.Set(s)
}
