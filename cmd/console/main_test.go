package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/audit"
	appconfig "github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/config"
)

func TestAppGraph(t *testing.T) {
	require.NoError(t, fx.ValidateApp(appOptions()))
}

func TestAuditTrailWithoutSinks(t *testing.T) {
	trail := newAuditTrail(nil, nil, nil)
	require.NotNil(t, trail)
	trail.Record(context.Background(), audit.NewRecord("notify-success", 1, "/order/1/notify-success", true, "ok", nil))
}

func TestOptionalBackends(t *testing.T) {
	cfg := appconfig.Config{}
	assert.Nil(t, newSQLDB(nil, cfg, nil), "audit database disabled")
	assert.Nil(t, newKafkaProducer(cfg, nil, nil), "no brokers")
	assert.Nil(t, newRepository(nil, nil))
}
