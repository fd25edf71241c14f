package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestOutstandingGaugesRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := NewOutstandingGauges(reg)
	g.AckEliciting.Set(3)
	g.Crypto.Set(1)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range metricFamilies {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] = gaugeValue(m)
		}
	}
	require.Equal(t, float64(3), values["qrecovery_ack_eliciting_outstanding"])
	require.Equal(t, float64(1), values["qrecovery_crypto_outstanding"])
}

func gaugeValue(m *dto.Metric) float64 {
	if m.GetGauge() != nil {
		return m.GetGauge().GetValue()
	}
	return 0
}
