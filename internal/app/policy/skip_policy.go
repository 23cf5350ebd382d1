package policy

import (
	"sort"
	"time"

	apperrors "watchme-asr/internal/app/errors"
)

// DeviceRule lists the local hours in which a device's audio is not transcribed.
type DeviceRule struct {
	Hours  []int  `yaml:"hours" json:"hours"`
	Reason string `yaml:"reason" json:"reason"`
}

// Decision is the outcome of a policy check. It is never an error.
type Decision struct {
	Skip   bool   `json:"skip"`
	Reason string `json:"reason,omitempty"`
}

// Filter answers skip decisions from a read-only device policy.
type Filter struct {
	rules map[string]rule
}

type rule struct {
	hours  [24]bool
	reason string
}

const defaultReason = "excluded by time-of-day policy"

// NewFilter validates the policy and builds a lookup table.
func NewFilter(policy map[string]DeviceRule) (*Filter, error) {
	rules := make(map[string]rule, len(policy))
	for device, dr := range policy {
		if device == "" {
			return nil, apperrors.RequiredField("skip_policy device id")
		}
		r := rule{reason: dr.Reason}
		if r.reason == "" {
			r.reason = defaultReason
		}
		for _, h := range dr.Hours {
			if h < 0 || h > 23 {
				return nil, apperrors.Wrapf(apperrors.OutOfRange("hour", 0, 23), "skip_policy for %s", device)
			}
			r.hours[h] = true
		}
		rules[device] = r
	}
	return &Filter{rules: rules}, nil
}

// ShouldSkip reports whether the segment of device starting at local must be skipped.
// It performs no I/O; local must already be in the device's timezone.
func (f *Filter) ShouldSkip(deviceID string, local time.Time) Decision {
	if f == nil {
		return Decision{}
	}
	r, ok := f.rules[deviceID]
	if !ok || !r.hours[local.Hour()] {
		return Decision{}
	}
	return Decision{Skip: true, Reason: r.reason}
}

// Devices returns the devices that have a rule, sorted.
func (f *Filter) Devices() []string {
	if f == nil {
		return nil
	}
	devices := make([]string, 0, len(f.rules))
	for device := range f.rules {
		devices = append(devices, device)
	}
	sort.Strings(devices)
	return devices
}
