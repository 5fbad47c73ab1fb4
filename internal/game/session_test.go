package game

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"impostor-irl/internal/catalog"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestSession(t *testing.T, seed uint64) (*Session, *testClock) {
	t.Helper()
	return newTestSessionWithCatalog(t, seed, catalog.Default())
}

func newTestSessionWithCatalog(t *testing.T, seed uint64, cat *catalog.Catalog) (*Session, *testClock) {
	t.Helper()
	clock := newTestClock()
	s := NewSession("abcde", Options{
		Now:     clock.Now,
		Rand:    rand.New(rand.NewPCG(seed, seed+1)),
		Catalog: catalog.NewStore(cat),
	})
	return s, clock
}

func joinPlayers(t *testing.T, s *Session, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		res, err := s.AddPlayer(name)
		if err != nil {
			t.Fatalf("join %q: %v", name, err)
		}
		ids = append(ids, res.PlayerID)
	}
	return ids
}

func startRound(t *testing.T, s *Session, ids []string) {
	t.Helper()
	for _, id := range ids {
		if err := s.ToggleReady(id, true); err != nil {
			t.Fatalf("ready %s: %v", id, err)
		}
	}
	if err := s.StartGame(ids[0]); err != nil {
		t.Fatalf("start game: %v", err)
	}
}

func playersWithRole(s *Session, role Role) []*Player {
	var out []*Player
	for _, p := range s.allPlayersLocked() {
		if p.Role == role && !p.Left {
			out = append(out, p)
		}
	}
	return out
}

func TestAddPlayerAssignsLeaderAndAvatars(t *testing.T) {
	s, _ := newTestSession(t, 1)
	first, err := s.AddPlayer("  Alice ")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !first.IsLeader || first.Name != "Alice" {
		t.Fatalf("unexpected first join: %+v", first)
	}
	second, err := s.AddPlayer("Bob")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if second.IsLeader {
		t.Fatal("second player should not lead")
	}
	if first.Avatar != AvatarPool[0] || second.Avatar != AvatarPool[1] {
		t.Fatalf("expected first unused avatars, got %s and %s", first.Avatar, second.Avatar)
	}
}

func TestAvatarFallbackWhenPoolExhausted(t *testing.T) {
	s, _ := newTestSession(t, 2)
	for i := range AvatarPool {
		joinPlayers(t, s, "p"+string(rune('a'+i)))
	}
	res, err := s.AddPlayer("extra")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	found := false
	for _, a := range AvatarPool {
		if a == res.Avatar {
			found = true
		}
	}
	if !found {
		t.Fatalf("fallback avatar %q not from pool", res.Avatar)
	}
}

func TestAddPlayerValidation(t *testing.T) {
	s, _ := newTestSession(t, 3)
	joinPlayers(t, s, "Alice")

	cases := []struct {
		name string
		want error
	}{
		{"   ", ErrNameRequired},
		{"ALICE", ErrNameTaken},
		{" alice ", ErrNameTaken},
		{strings.Repeat("x", maxNameRunes+1), ErrNameTooLong},
	}
	for _, tc := range cases {
		if _, err := s.AddPlayer(tc.name); !errors.Is(err, tc.want) {
			t.Fatalf("join %q: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestJoinRejectedOnceStarted(t *testing.T) {
	s, _ := newTestSession(t, 4)
	ids := joinPlayers(t, s, "a", "b", "c")
	startRound(t, s, ids)
	if _, err := s.AddPlayer("late"); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("expected game_in_progress, got %v", err)
	}
}

func TestLeaderReassignedOnLobbyLeave(t *testing.T) {
	s, _ := newTestSession(t, 5)
	ids := joinPlayers(t, s, "a", "b", "c")
	if err := s.Leave(ids[0]); err != nil {
		t.Fatalf("leave: %v", err)
	}
	snap := s.LobbySnapshot(ids[1])
	if snap.LeaderID != ids[1] || !snap.IsLeader {
		t.Fatalf("expected %s to lead, got %s", ids[1], snap.LeaderID)
	}
	if len(snap.Players) != 2 {
		t.Fatalf("expected lobby leave to delete record, got %d players", len(snap.Players))
	}
	if err := s.ToggleReady(ids[0], true); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected player_not_found after leave, got %v", err)
	}
	// the freed avatar goes to the next joiner
	res, err := s.AddPlayer("d")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if res.Avatar != AvatarPool[0] {
		t.Fatalf("expected released avatar %s, got %s", AvatarPool[0], res.Avatar)
	}
}

func TestUpdateConfigAppliesValidFieldsAndReportsErrors(t *testing.T) {
	s, _ := newTestSession(t, 6)
	ids := joinPlayers(t, s, "a", "b")

	cfg, err := s.UpdateConfig(ids[0], ConfigUpdate{
		RequiredPlayers: IntField(5),
		KillCooldown:    IntField(5),
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid_config, got %v", err)
	}
	if !strings.Contains(err.Error(), "kill cooldown") {
		t.Fatalf("expected kill cooldown message, got %q", err.Error())
	}
	if cfg.RequiredPlayers != 5 {
		t.Fatalf("valid field should apply, got required=%d", cfg.RequiredPlayers)
	}
	if cfg.KillCooldown != DefaultTimings().DefaultKillCooldown {
		t.Fatalf("invalid field should not apply, got %d", cfg.KillCooldown)
	}

	off := false
	cfg, err = s.UpdateConfig(ids[0], ConfigUpdate{
		KillCooldown:    IntField(30),
		Impostors:       IntField(2),
		MeetingDuration: &ConfigField{Malformed: true},
		SupportRole:     &off,
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid_config for malformed field, got %v", err)
	}
	if cfg.KillCooldown != 30 || cfg.Impostors != 2 || cfg.SupportRole {
		t.Fatalf("unexpected config after partial update: %+v", cfg)
	}

	if _, err := s.UpdateConfig(ids[1], ConfigUpdate{RequiredPlayers: IntField(3)}); !errors.Is(err, ErrNotLeader) {
		t.Fatalf("expected not_leader, got %v", err)
	}
	if _, err := s.UpdateConfig(ids[0], ConfigUpdate{RequiredPlayers: IntField(3)}); err != nil {
		t.Fatalf("expected clean update, got %v", err)
	}
}

func TestKick(t *testing.T) {
	s, _ := newTestSession(t, 7)
	ids := joinPlayers(t, s, "a", "b", "c")

	if _, err := s.Kick(ids[0], ids[0]); !errors.Is(err, ErrCannotKickSelf) {
		t.Fatalf("expected cannot_kick_self, got %v", err)
	}
	if _, err := s.Kick(ids[1], ids[2]); !errors.Is(err, ErrNotLeader) {
		t.Fatalf("expected not_leader, got %v", err)
	}
	if _, err := s.Kick(ids[0], "missing"); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected target_not_found, got %v", err)
	}
	res, err := s.Kick(ids[0], ids[2])
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if res.PlayerID != ids[2] || res.Name != "c" {
		t.Fatalf("unexpected kick result: %+v", res)
	}
	if s.ActivePlayers() != 2 {
		t.Fatalf("expected 2 active players, got %d", s.ActivePlayers())
	}
}

func TestStartGameAssignsExactlyOneImpostor(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		s, _ := newTestSession(t, seed)
		ids := joinPlayers(t, s, "a", "b", "c")
		startRound(t, s, ids)

		if s.Phase() != PhaseInGame {
			t.Fatalf("seed %d: expected in_game, got %s", seed, s.Phase())
		}
		impostors := playersWithRole(s, RoleImpostor)
		if len(impostors) != 1 {
			t.Fatalf("seed %d: expected 1 impostor, got %d", seed, len(impostors))
		}
		medics := 0
		for _, p := range s.players {
			if p.Support == SupportMedic {
				medics++
				if p.Role != RoleCrewmate {
					t.Fatalf("seed %d: medic must be a crewmate", seed)
				}
			}
			if len(p.Tasks) == 0 {
				t.Fatalf("seed %d: player %s got no tasks", seed, p.Name)
			}
		}
		if medics != 1 {
			t.Fatalf("seed %d: expected one medic, got %d", seed, medics)
		}
	}
}

func TestStartGamePreconditions(t *testing.T) {
	s, _ := newTestSession(t, 8)
	ids := joinPlayers(t, s, "a")
	if err := s.StartGame(ids[0]); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("expected not_enough_players, got %v", err)
	}

	ids = append(ids, joinPlayers(t, s, "b")...)
	if err := s.ToggleReady(ids[0], true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := s.StartGame(ids[0]); !errors.Is(err, ErrNotAllReady) {
		t.Fatalf("expected not_all_ready, got %v", err)
	}
	if err := s.ToggleReady(ids[1], true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if _, err := s.UpdateConfig(ids[0], ConfigUpdate{Impostors: IntField(2)}); err != nil {
		t.Fatalf("config: %v", err)
	}
	if snap := s.LobbySnapshot(ids[0]); snap.CanStart || !snap.EveryoneReady {
		t.Fatalf("unexpected snapshot flags: %+v", snap)
	}
	if err := s.StartGame(ids[1]); !errors.Is(err, ErrTooManyImpostors) {
		t.Fatalf("expected too_many_impostors, got %v", err)
	}
	if _, err := s.UpdateConfig(ids[0], ConfigUpdate{Impostors: IntField(1)}); err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := s.StartGame(ids[1]); err != nil {
		t.Fatalf("any ready player may start: %v", err)
	}
	if err := s.StartGame(ids[1]); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected wrong_phase on second start, got %v", err)
	}
}

func TestResetToLobbyPurgesLeftPlayers(t *testing.T) {
	s, _ := newTestSession(t, 9)
	ids := joinPlayers(t, s, "a", "b", "c", "d")
	startRound(t, s, ids)

	crew := playersWithRole(s, RoleCrewmate)
	leaver := crew[0].ID
	if err := s.Leave(leaver); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := s.Leave(leaver); !errors.Is(err, ErrPlayerLeft) {
		t.Fatalf("expected player_left on second leave, got %v", err)
	}

	var leader string
	for _, id := range ids {
		if id != leaver {
			leader = id
			break
		}
	}
	if s.LobbySnapshot("").LeaderID != leader {
		t.Fatalf("expected leader %s after leave", leader)
	}
	for _, id := range ids {
		if id != leader && id != leaver {
			if err := s.ResetToLobby(id); !errors.Is(err, ErrNotLeader) {
				t.Fatalf("expected not_leader, got %v", err)
			}
			break
		}
	}
	if err := s.ResetToLobby(leader); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.Phase() != PhaseLobby {
		t.Fatalf("expected lobby, got %s", s.Phase())
	}
	if _, ok := s.players[leaver]; ok {
		t.Fatal("left player should be purged on reset")
	}
	for _, p := range s.players {
		if p.Role != RoleNone || p.Ready || len(p.Tasks) != 0 {
			t.Fatalf("round state not cleared for %s: %+v", p.Name, p)
		}
	}
	if s.round != 0 {
		t.Fatalf("expected round counter reset, got %d", s.round)
	}
}

func TestActionsRejectUnknownPlayer(t *testing.T) {
	s, _ := newTestSession(t, 10)
	joinPlayers(t, s, "a")
	if err := s.ToggleReady("ghost", true); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected player_not_found, got %v", err)
	}
	if _, err := s.PlayerView("ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected player_not_found, got %v", err)
	}
	e, ok := AsError(ErrPlayerNotFound)
	if !ok || e.Kind != KindNotFound {
		t.Fatalf("expected not-found kind, got %+v", e)
	}
}

func TestPlayerViewHidesRolesAndUnreportedDeaths(t *testing.T) {
	s, _ := newTestSession(t, 21)
	ids := joinPlayers(t, s, "a", "b", "c", "d", "e")
	if _, err := s.UpdateConfig(ids[0], ConfigUpdate{Impostors: IntField(2)}); err != nil {
		t.Fatalf("update config: %v", err)
	}
	startRound(t, s, ids)

	impostors := playersWithRole(s, RoleImpostor)
	crew := playersWithRole(s, RoleCrewmate)
	if len(impostors) != 2 || len(crew) != 3 {
		t.Fatalf("expected 2 impostors and 3 crew, got %d/%d", len(impostors), len(crew))
	}
	entry := func(v PlayerView, id string) RosterEntry {
		t.Helper()
		for _, e := range v.Players {
			if e.ID == id {
				return e
			}
		}
		t.Fatalf("player %s missing from view", id)
		return RosterEntry{}
	}

	crewView, err := s.PlayerView(crew[0].ID)
	if err != nil {
		t.Fatalf("crew view: %v", err)
	}
	if crewView.You.Role != RoleCrewmate || crewView.Kill != nil {
		t.Fatalf("unexpected crew self view: %+v", crewView.You)
	}
	for _, imp := range impostors {
		if role := entry(crewView, imp.ID).Role; role != RoleNone {
			t.Fatalf("crewmate sees impostor role %q", role)
		}
	}

	impView, err := s.PlayerView(impostors[0].ID)
	if err != nil {
		t.Fatalf("impostor view: %v", err)
	}
	if entry(impView, impostors[1].ID).Role != RoleImpostor {
		t.Fatal("impostor should see a fellow impostor")
	}
	if entry(impView, crew[0].ID).Role != RoleNone {
		t.Fatal("impostor must not see crew roles")
	}
	if impView.Kill == nil || !impView.Kill.Ready {
		t.Fatalf("kill should be ready at round start: %+v", impView.Kill)
	}

	victim := crew[1]
	if err := s.Kill(impostors[0].ID, victim.ID); err != nil {
		t.Fatalf("kill: %v", err)
	}
	crewView, _ = s.PlayerView(crew[0].ID)
	if !entry(crewView, victim.ID).Alive {
		t.Fatal("an unreported death must not be visible")
	}
	victimView, _ := s.PlayerView(victim.ID)
	if victimView.You.Alive || entry(victimView, victim.ID).Alive {
		t.Fatal("the victim knows they are dead")
	}

	if err := s.ReportBody(crew[0].ID, victim.ID); err != nil {
		t.Fatalf("report: %v", err)
	}
	crewView, _ = s.PlayerView(crew[0].ID)
	if entry(crewView, victim.ID).Alive {
		t.Fatal("a reported death is public")
	}
	if crewView.Meeting == nil || crewView.Meeting.BodyID != victim.ID || crewView.Meeting.EligibleVoters != 4 {
		t.Fatalf("unexpected meeting view: %+v", crewView.Meeting)
	}
}
