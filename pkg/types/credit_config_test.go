package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCreditConfig_FullBlob(t *testing.T) {
	blob := []byte(`{
		"donation": {"enabled": true, "percentage": 7, "lastProcessedMonth": "2026-07"},
		"rollover": {"enabled": true, "maxMonthsToKeep": 3}
	}`)

	c, err := ParseCreditConfig(blob)
	require.NoError(t, err)
	require.True(t, c.Donation.Enabled)
	require.Equal(t, 7, c.Donation.Percentage)
	require.Equal(t, "2026-07", c.Donation.LastProcessedMonth)
	require.True(t, c.Rollover.Enabled)
	require.Equal(t, 3, c.Rollover.MaxMonthsToKeep)
	require.Empty(t, c.Rollover.LastProcessedMonth)
}

func TestParseCreditConfig_Malformed(t *testing.T) {
	cases := [][]byte{
		[]byte(`"just a string"`),
		[]byte(`null`),
		[]byte(`[1,2,3]`),
		[]byte(`{"donation": 42}`),
		[]byte(`{"donation": {"enabled": true, "percentage": 101}}`),
		[]byte(`{"donation": {"enabled": true, "percentage": -1}}`),
		[]byte(`{"rollover": {"enabled": true, "maxMonthsToKeep": -2}}`),
		[]byte(`{not json`),
	}
	for _, blob := range cases {
		_, err := ParseCreditConfig(blob)
		require.ErrorIs(t, err, ErrMalformedCreditSettings, "blob: %s", blob)
	}
}

func TestCreditConfig_DueChecks(t *testing.T) {
	c, err := ParseCreditConfig([]byte(`{
		"donation": {"enabled": true, "percentage": 10, "lastProcessedMonth": "2026-08"},
		"rollover": {"enabled": false, "maxMonthsToKeep": 2}
	}`))
	require.NoError(t, err)

	// already stamped for the month
	require.False(t, c.DonationDue("2026-08"))
	require.True(t, c.DonationDue("2026-09"))
	// disabled never due
	require.False(t, c.RolloverDue("2026-09"))
}

func TestCreditConfig_RoundTripPreservesUnknownFields(t *testing.T) {
	blob := []byte(`{
		"donation": {"enabled": true, "percentage": 5, "theme": "forest"},
		"rollover": {"enabled": true, "maxMonthsToKeep": 2, "lastProcessedMonth": "2026-06"},
		"notifications": {"email": true}
	}`)

	c, err := ParseCreditConfig(blob)
	require.NoError(t, err)
	require.NoError(t, c.SetProcessedMonth(CreditSettingsDonation, "2026-08"))

	out, err := c.Serialize()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))

	donation := m["donation"].(map[string]any)
	require.Equal(t, "forest", donation["theme"])
	require.Equal(t, "2026-08", donation["lastProcessedMonth"])
	require.Equal(t, float64(5), donation["percentage"])

	rollover := m["rollover"].(map[string]any)
	require.Equal(t, "2026-06", rollover["lastProcessedMonth"])
	require.Equal(t, float64(2), rollover["maxMonthsToKeep"])

	require.Equal(t, map[string]any{"email": true}, m["notifications"])
}

func TestCreditConfig_SerializeOmitsAbsentSections(t *testing.T) {
	c, err := ParseCreditConfig([]byte(`{"rollover": {"enabled": true, "maxMonthsToKeep": 1}}`))
	require.NoError(t, err)

	out, err := c.Serialize()
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	require.NotContains(t, m, "donation")
	require.Contains(t, m, "rollover")
}

func TestCreditConfig_SetProcessedMonthUnknownKind(t *testing.T) {
	c, err := ParseCreditConfig([]byte(`{}`))
	require.NoError(t, err)
	require.Error(t, c.SetProcessedMonth("bonus", "2026-08"))
}
