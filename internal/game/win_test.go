package game

import (
	"testing"

	"impostor-irl/internal/catalog"
)

func TestImpostorLeavingEndsRound(t *testing.T) {
	s, _ := newTestSession(t, 31)
	ids := joinPlayers(t, s, "a", "b", "c")
	startRound(t, s, ids)

	impostor := playersWithRole(s, RoleImpostor)[0]
	if err := s.Leave(impostor.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.phase != PhaseEnded {
		t.Fatalf("expected ended, got %s", s.phase)
	}
	if s.end.Winner != FactionCrewmates || s.end.Reason != ReasonImpostorLeft || s.end.PlayerID != impostor.ID {
		t.Fatalf("unexpected end: %+v", s.end)
	}
}

func TestTaskWinDuringMeeting(t *testing.T) {
	s, clock := newTestSession(t, 32)
	ids := joinPlayers(t, s, "a", "b", "c", "d")
	if _, err := s.UpdateConfig(ids[0], ConfigUpdate{SupportRole: new(bool)}); err != nil {
		t.Fatalf("config: %v", err)
	}
	startRound(t, s, ids)

	crew := playersWithRole(s, RoleCrewmate)
	openVoting(t, s, clock, crew[0].ID)

	for _, p := range crew {
		for _, task := range p.Tasks {
			if s.phase == PhaseEnded {
				t.Fatal("round ended before the last task")
			}
			if err := s.CompleteTask(p.ID, task.ID, true); err != nil {
				t.Fatalf("complete: %v", err)
			}
		}
	}
	if s.phase != PhaseEnded || s.end.Reason != ReasonTasks || s.end.Winner != FactionCrewmates {
		t.Fatalf("expected task win, got phase %s end %+v", s.phase, s.end)
	}
	if s.meeting != nil {
		t.Fatal("ending the round must discard the meeting")
	}
	if s.revealed != 1 {
		t.Fatalf("expected full progress revealed at the end, got %v", s.revealed)
	}
}

func TestLastCrewmateWin(t *testing.T) {
	s, _ := newTestSession(t, 33)
	ids := joinPlayers(t, s, "a", "b", "c")
	startRound(t, s, ids)

	impostor := playersWithRole(s, RoleImpostor)[0]
	crew := playersWithRole(s, RoleCrewmate)
	if err := s.Kill(impostor.ID, crew[0].ID); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if s.phase != PhaseEnded || s.end.Winner != FactionImpostors || s.end.Reason != ReasonLastCrewmate {
		t.Fatalf("expected impostor win, got %+v", s.end)
	}

	view, err := s.PlayerView(crew[1].ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.GameOver == nil {
		t.Fatal("expected game over in view")
	}
	for _, e := range view.Players {
		if e.Role == RoleNone {
			t.Fatalf("roles should be revealed once the round ends: %+v", e)
		}
	}
}

func TestNoTasksMeansNoTaskWin(t *testing.T) {
	cat := &catalog.Catalog{Categories: []catalog.Category{
		{Name: "fast", Count: 0, Templates: []catalog.Template{{Name: "Sweep"}}},
	}}
	s, _ := newTestSessionWithCatalog(t, 34, cat)
	ids := joinPlayers(t, s, "a", "b", "c")
	startRound(t, s, ids)

	if s.phase != PhaseInGame {
		t.Fatalf("expected in_game, got %s", s.phase)
	}
	s.mu.Lock()
	ended := s.checkWinLocked(s.now(), winContext{})
	s.mu.Unlock()
	if ended {
		t.Fatal("an empty task pool must not end the round")
	}
}

func TestSecondImpostorKeepsRoundAlive(t *testing.T) {
	s, _ := newTestSession(t, 35)
	ids := joinPlayers(t, s, "a", "b", "c", "d", "e", "f")
	if _, err := s.UpdateConfig(ids[0], ConfigUpdate{Impostors: IntField(2)}); err != nil {
		t.Fatalf("config: %v", err)
	}
	startRound(t, s, ids)

	impostors := playersWithRole(s, RoleImpostor)
	if err := s.Leave(impostors[0].ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.phase != PhaseInGame {
		t.Fatalf("one impostor remains, got %s", s.phase)
	}
	if err := s.Leave(impostors[1].ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.end == nil || s.end.Reason != ReasonImpostorLeft {
		t.Fatalf("expected impostor_left, got %+v", s.end)
	}
}
