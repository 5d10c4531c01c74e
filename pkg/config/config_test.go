package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	require.Equal(t, EnvDev, c.Env)
	require.Equal(t, 100, c.Job.PageSize)
	require.Equal(t, 45, c.Job.MarkerTTLDays)
	require.Equal(t, int64(3000), c.Job.PremiumMonthlyAllotment)
	require.Equal(t, "0 4 1 * *", c.Job.CronSpec)
	require.Equal(t, "billing", c.AMQP.Exchange)
	require.Equal(t, 45*24*time.Hour, c.MarkerTTL())
	require.Equal(t, 6*time.Hour, c.RunLockTTL())
}
