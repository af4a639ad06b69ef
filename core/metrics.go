package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"sklandapi/utils"
)

var requestAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "skland_request_attempts_total",
		Help: "Upstream HTTP attempts by host and outcome.",
	},
	[]string{"host", "outcome"},
)

var signInResults = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "skland_signin_results_total",
		Help: "Attendance results by game and outcome.",
	},
	[]string{"game", "outcome"},
)

var accountRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "skland_account_runs_total",
		Help: "Processed accounts by outcome.",
	},
	[]string{"outcome"},
)

// RegisterMetrics adds the client collectors to reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{requestAttempts, signInResults, accountRuns} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func resultOutcome(r utils.SignInResult) string {
	switch {
	case r.Success:
		return "success"
	case r.AlreadySigned():
		return "already"
	default:
		return "failed"
	}
}

func recordResult(r utils.SignInResult) utils.SignInResult {
	signInResults.WithLabelValues(r.Game, resultOutcome(r)).Inc()
	return r
}
