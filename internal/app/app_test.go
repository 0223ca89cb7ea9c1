package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/config"
	"github.com/sfms-dev/facility_bot/internal/repository/memory"
)

func TestOpenStoresMemory(t *testing.T) {
	cfg := &config.Config{StateStore: config.StoreMemory}

	stores, err := OpenStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &memory.DailyStateStore{}, stores.Daily)
	assert.IsType(t, &memory.BorrowerStore{}, stores.Borrowers)
}
