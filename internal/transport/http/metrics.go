package httptransport

import "expvar"

var (
	metricLobbyCreateTotal  = expvar.NewInt("lobby_create_total")
	metricLobbyCreateErrors = expvar.NewInt("lobby_create_errors_total")
	metricLobbyJoinTotal    = expvar.NewInt("lobby_join_total")
	metricSessionsActive    = expvar.NewInt("sessions_active")

	metricActionTotal  = expvar.NewInt("action_total")
	metricActionErrors = expvar.NewInt("action_errors_total")
	metricRateLimited  = expvar.NewInt("action_rate_limited_total")

	metricGamesStarted    = expvar.NewInt("games_started_total")
	metricMeetingsCalled  = expvar.NewInt("meetings_called_total")
	metricStatePollsTotal = expvar.NewInt("state_polls_total")
)
