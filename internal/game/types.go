package game

type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhaseInGame  Phase = "in_game"
	PhaseMeeting Phase = "meeting"
	PhaseEnded   Phase = "ended"
)

func (p Phase) Playing() bool {
	return p == PhaseInGame || p == PhaseMeeting
}

type Role string

const (
	RoleNone     Role = ""
	RoleCrewmate Role = "crewmate"
	RoleImpostor Role = "impostor"
)

type SupportRole string

const (
	SupportNone  SupportRole = ""
	SupportMedic SupportRole = "medic"
)

type MeetingKind string

const (
	MeetingReportedBody MeetingKind = "reported_body"
	MeetingEmergency    MeetingKind = "emergency"
)

type Outcome string

const (
	OutcomeEjected       Outcome = "ejected"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeNoElimination Outcome = "no_elimination"
	OutcomeNoVotes       Outcome = "no_votes"
)

type Faction string

const (
	FactionCrewmates Faction = "crewmates"
	FactionImpostors Faction = "impostors"
)

type EndReason string

const (
	ReasonImpostorEjected     EndReason = "impostor_ejected"
	ReasonImpostorLeft        EndReason = "impostor_left"
	ReasonLastCrewmate        EndReason = "last_crewmate"
	ReasonTasks               EndReason = "tasks"
	ReasonImpostorsEliminated EndReason = "impostors_eliminated"
)

// SkipVote is the vote value for abstaining.
const SkipVote = "skip"

// AvatarPool is the fixed set of avatar tokens handed out on join.
var AvatarPool = []string{"red", "blue", "green", "yellow", "pink", "orange", "cyan", "purple"}

const maxNameRunes = 24
