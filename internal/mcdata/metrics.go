package mcdata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// decodeTotal counts entries decoded from a chain, by branch.
	decodeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mcdata_decode_total",
		Help: "Total chain entries decoded by branch",
	}, []string{"branch"})

	// lookupTotal counts collection lookups by branch and result
	// (hit, miss, not_found, error).
	lookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mcdata_lookup_total",
		Help: "Total collection lookups by branch and result",
	}, []string{"branch", "result"})

	// residentEvents tracks the number of decoded events held by a cache.
	residentEvents = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mcdata_resident_events",
		Help: "Decoded events currently held in cache by branch",
	}, []string{"branch"})
)
