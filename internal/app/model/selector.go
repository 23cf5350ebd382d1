package model

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Selector chooses the work items of one batch run.
//
// The preferred form is DeviceID + Date with optional TimeBlocks. The legacy
// form lists storage keys directly. The two forms are mutually exclusive.
type Selector struct {
	DeviceID    string   `json:"device_id,omitempty"`
	Date        string   `json:"date,omitempty"`
	TimeBlocks  []string `json:"time_blocks,omitempty"`
	StorageKeys []string `json:"file_paths,omitempty"`

	// Provider and Model override the process selection for this run only.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Force reprocesses items already completed or skipped.
	Force bool `json:"force,omitempty"`
}

// Legacy reports whether the selector uses flat storage keys.
func (s Selector) Legacy() bool {
	return len(s.StorageKeys) > 0
}

// Validate rejects empty, mixed or malformed selectors.
func (s Selector) Validate() error {
	if s.Legacy() {
		if s.DeviceID != "" || s.Date != "" || len(s.TimeBlocks) > 0 {
			return fmt.Errorf("file_paths cannot be combined with device_id, date or time_blocks")
		}
		for _, key := range s.StorageKeys {
			if _, err := ParseStorageKey(key); err != nil {
				return err
			}
		}
		return nil
	}
	if s.DeviceID == "" || s.Date == "" {
		return fmt.Errorf("either device_id and date or file_paths is required")
	}
	for _, block := range s.TimeBlocks {
		key := WorkItemKey{DeviceID: s.DeviceID, Date: s.Date, TimeBlock: block}
		if err := key.Validate(); err != nil {
			return err
		}
	}
	return WorkItemKey{DeviceID: s.DeviceID, Date: s.Date, TimeBlock: "00-00"}.Validate()
}

// ExplicitKeys returns the keys named by the selector, deduplicated in order.
// It returns nil when the selector asks for every pending item of a device/date.
func (s Selector) ExplicitKeys() ([]WorkItemKey, error) {
	if s.Legacy() {
		keys := make([]WorkItemKey, 0, len(s.StorageKeys))
		for _, raw := range s.StorageKeys {
			key, err := ParseStorageKey(raw)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
		return lo.Uniq(keys), nil
	}
	if len(s.TimeBlocks) == 0 {
		return nil, nil
	}
	return lo.Map(lo.Uniq(s.TimeBlocks), func(block string, _ int) WorkItemKey {
		return WorkItemKey{DeviceID: s.DeviceID, Date: s.Date, TimeBlock: block}
	}), nil
}

// ParseStorageKey converts files/<device>/<date>/<block>/audio.wav into a key.
// Other file names are rejected since the fetch always reads the canonical object.
func ParseStorageKey(raw string) (WorkItemKey, error) {
	parts := strings.Split(strings.TrimPrefix(raw, "/"), "/")
	if len(parts) != 5 || parts[0] != "files" || parts[4] != AudioFileName {
		return WorkItemKey{}, fmt.Errorf("storage key %q must look like files/<device_id>/<date>/<time_block>/%s", raw, AudioFileName)
	}
	key := WorkItemKey{DeviceID: parts[1], Date: parts[2], TimeBlock: parts[3]}
	if err := key.Validate(); err != nil {
		return WorkItemKey{}, fmt.Errorf("storage key %q: %w", raw, err)
	}
	return key, nil
}
