package game

import "github.com/prometheus/client_golang/prometheus"

var (
	RoomsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bingo_rooms",
		Help: "A gauge of live bingo rooms.",
	})

	GamesStartedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bingo_games_started_total",
		Help: "A counter for games that reached two players.",
	})

	GamesFinishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bingo_games_finished_total",
		Help: "A counter for finished games, by reason.",
	}, []string{"reason"})

	NumbersCalledCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bingo_numbers_called_total",
		Help: "A counter for accepted number calls.",
	})

	RejectedCallsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bingo_rejected_calls_total",
		Help: "A counter for number calls ignored as out of turn or unknown room.",
	})
)

const (
	finishedReasonWin        = "win"
	finishedReasonDisconnect = "disconnect"
)

func init() {
	prometheus.MustRegister(
		RoomsGauge,
		GamesStartedCounter,
		GamesFinishedCounter,
		NumbersCalledCounter,
		RejectedCallsCounter,
	)
}
