package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundprediction/citator/pkg/config"
)

func TestEmailAlerterDisabledIsNoOp(t *testing.T) {
	alerter := NewEmailAlerter(config.AlertConfig{Enabled: false})

	err := alerter.Alert("circuit breaker tripped", "embedding provider unavailable")
	assert.NoError(t, err)
}

func TestNoOpAlerterDiscards(t *testing.T) {
	var alerter Alerter = &NoOpAlerter{}

	assert.NoError(t, alerter.Alert("anything", "anything"))
}
