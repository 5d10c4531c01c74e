package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedCreditSettings is returned by ParseCreditConfig when the
// settings blob is not a JSON object or a sub-config is invalid. Callers
// treat it as "skip this user", not as a system fault.
var ErrMalformedCreditSettings = errors.New("malformed credit settings")

// CreditSettingsKind names one of the two independent sub-configs.
type CreditSettingsKind string

const (
	CreditSettingsDonation CreditSettingsKind = "donation"
	CreditSettingsRollover CreditSettingsKind = "rollover"
)

// DonationConfig controls the monthly donation of unused free credit.
type DonationConfig struct {
	Enabled            bool   `json:"enabled"`
	Percentage         int    `json:"percentage"`
	LastProcessedMonth string `json:"lastProcessedMonth,omitempty"`
}

// RolloverConfig controls expiration of credit above the rollover cap.
// MaxMonthsToKeep is expressed in months of premium allotment.
type RolloverConfig struct {
	Enabled            bool   `json:"enabled"`
	MaxMonthsToKeep    int    `json:"maxMonthsToKeep"`
	LastProcessedMonth string `json:"lastProcessedMonth,omitempty"`
}

// CreditConfig is the typed view over a user's JSON credit settings blob.
// It round-trips losslessly: unknown keys, both top-level and inside the
// donation/rollover objects, survive a parse/mutate/serialize cycle.
type CreditConfig struct {
	Donation DonationConfig
	Rollover RolloverConfig

	raw         map[string]json.RawMessage
	donationRaw map[string]json.RawMessage
	rolloverRaw map[string]json.RawMessage

	hasDonation bool
	hasRollover bool
}

// ParseCreditConfig builds a CreditConfig from a raw settings blob.
// Anything that is not a JSON object with well-formed sub-configs fails
// with ErrMalformedCreditSettings; no partially-parsed value escapes.
func ParseCreditConfig(blob []byte) (*CreditConfig, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCreditSettings, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedCreditSettings)
	}

	c := &CreditConfig{raw: m}

	if sec, ok := m[string(CreditSettingsDonation)]; ok {
		c.hasDonation = true
		if err := json.Unmarshal(sec, &c.Donation); err != nil {
			return nil, fmt.Errorf("%w: donation: %v", ErrMalformedCreditSettings, err)
		}
		if err := json.Unmarshal(sec, &c.donationRaw); err != nil || c.donationRaw == nil {
			return nil, fmt.Errorf("%w: donation is not an object", ErrMalformedCreditSettings)
		}
		if c.Donation.Percentage < 0 || c.Donation.Percentage > 100 {
			return nil, fmt.Errorf("%w: donation percentage %d out of range", ErrMalformedCreditSettings, c.Donation.Percentage)
		}
	}

	if sec, ok := m[string(CreditSettingsRollover)]; ok {
		c.hasRollover = true
		if err := json.Unmarshal(sec, &c.Rollover); err != nil {
			return nil, fmt.Errorf("%w: rollover: %v", ErrMalformedCreditSettings, err)
		}
		if err := json.Unmarshal(sec, &c.rolloverRaw); err != nil || c.rolloverRaw == nil {
			return nil, fmt.Errorf("%w: rollover is not an object", ErrMalformedCreditSettings)
		}
		if c.Rollover.MaxMonthsToKeep < 0 {
			return nil, fmt.Errorf("%w: maxMonthsToKeep %d out of range", ErrMalformedCreditSettings, c.Rollover.MaxMonthsToKeep)
		}
	}

	return c, nil
}

// DonationDue reports whether donation settlement should run for month.
func (c *CreditConfig) DonationDue(month string) bool {
	return c.Donation.Enabled && c.Donation.LastProcessedMonth != month
}

// RolloverDue reports whether rollover expiration should run for month.
func (c *CreditConfig) RolloverDue(month string) bool {
	return c.Rollover.Enabled && c.Rollover.LastProcessedMonth != month
}

// SetProcessedMonth stamps the lastProcessedMonth of one sub-config.
func (c *CreditConfig) SetProcessedMonth(kind CreditSettingsKind, month string) error {
	switch kind {
	case CreditSettingsDonation:
		c.Donation.LastProcessedMonth = month
		c.hasDonation = true
	case CreditSettingsRollover:
		c.Rollover.LastProcessedMonth = month
		c.hasRollover = true
	default:
		return fmt.Errorf("unknown credit settings kind: %q", kind)
	}
	return nil
}

// Serialize renders the config back to its JSON blob form. Fields that were
// not explicitly changed come back byte-for-byte semantically intact.
func (c *CreditConfig) Serialize() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.raw)+2)
	for k, v := range c.raw {
		out[k] = v
	}
	if c.hasDonation {
		sec, err := mergeSection(c.donationRaw, c.Donation)
		if err != nil {
			return nil, fmt.Errorf("serialize donation config: %w", err)
		}
		out[string(CreditSettingsDonation)] = sec
	}
	if c.hasRollover {
		sec, err := mergeSection(c.rolloverRaw, c.Rollover)
		if err != nil {
			return nil, fmt.Errorf("serialize rollover config: %w", err)
		}
		out[string(CreditSettingsRollover)] = sec
	}
	return json.Marshal(out)
}

// mergeSection overlays the typed sub-config onto the raw keys captured at
// parse time, so keys this service does not know about are kept.
func mergeSection(raw map[string]json.RawMessage, typed any) (json.RawMessage, error) {
	data, err := json.Marshal(typed)
	if err != nil {
		return nil, err
	}
	var typedKeys map[string]json.RawMessage
	if err := json.Unmarshal(data, &typedKeys); err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage, len(raw)+len(typedKeys))
	for k, v := range raw {
		merged[k] = v
	}
	for k, v := range typedKeys {
		merged[k] = v
	}
	return json.Marshal(merged)
}
