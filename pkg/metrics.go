package pkg

import "github.com/prometheus/client_golang/prometheus"

var (
	BingoServerSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bingo_server_sessions",
		Help: "A gauge of websocket sessions connected to the bingo server.",
	})

	BingoServerInFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bingo_server_in_flight_requests",
		Help: "A gauge of requests being handled by the bingo server.",
	})

	BingoServerRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bingo_server_requests_total",
		Help: "A counter for requests to the bingo server.",
	}, []string{"code", "method"})

	BingoServerDroppedMessagesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bingo_server_dropped_messages_total",
		Help: "A counter for outbound messages dropped because a session's queue was full.",
	})
)

func init() {
	prometheus.MustRegister(
		BingoServerSessionsGauge,
		BingoServerInFlightGauge,
		BingoServerRequestsCounter,
		BingoServerDroppedMessagesCounter,
	)
}
