package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestDefaultGathererWorks(t *testing.T) {
	// Metrics themselves are registered via promauto in the client, cache,
	// ratelimit and progress packages; here we only verify the default
	// registry gathers cleanly.
	if _, err := prometheus.DefaultGatherer.Gather(); err != nil {
		t.Errorf("Gather failed: %v", err)
	}
}
