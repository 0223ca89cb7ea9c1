package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"TELEGRAM_TOKEN": "123:abc",
		"BACKEND_URL":    "https://sfms.example.edu",
		"TZ_NAME":        "UTC",
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StoreMemory, cfg.StateStore)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ReconcileInterval)
	assert.True(t, cfg.FeedbackUpload)
	assert.Empty(t, cfg.AllowedChatIDs)
}

func TestParseLists(t *testing.T) {
	e := baseEnv()
	e["ALLOWED_CHAT_IDS"] = "1,-1002003004"
	e["STAFF_CHAT_IDS"] = "42"
	e["HTTP_TIMEOUT"] = "3s"

	cfg, err := Parse(e)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, -1002003004}, cfg.AllowedChatIDs)
	assert.Equal(t, []int64{42}, cfg.StaffChatIDs)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]string
		drop string
	}{
		{name: "missing token", drop: "TELEGRAM_TOKEN"},
		{name: "missing backend", drop: "BACKEND_URL"},
		{name: "postgres without dsn", set: map[string]string{"STATE_STORE": "postgres"}},
		{name: "redis without addr", set: map[string]string{"STATE_STORE": "redis"}},
		{name: "unknown store", set: map[string]string{"STATE_STORE": "etcd"}},
		{name: "user without password", set: map[string]string{"BACKEND_USER": "desk"}},
		{name: "bad zone", set: map[string]string{"TZ_NAME": "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := baseEnv()
			delete(e, tt.drop)
			for k, v := range tt.set {
				e[k] = v
			}
			_, err := Parse(e)
			assert.Error(t, err)
		})
	}
}

func TestLocation(t *testing.T) {
	e := baseEnv()
	e["TZ_NAME"] = "Asia/Bangkok"
	cfg, err := Parse(e)
	require.NoError(t, err)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bangkok", loc.String())
}
