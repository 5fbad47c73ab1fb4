package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"impostor-irl/internal/catalog"
	"impostor-irl/internal/ids"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
)

// CatalogSource supplies the task catalog a round is built from.
type CatalogSource interface {
	Current() *catalog.Catalog
}

type Options struct {
	Now     func() time.Time
	Rand    *rand.Rand
	Catalog CatalogSource
	Timings Timings
}

// Session is one game instance. Every exported method takes the session
// lock for its whole duration and first resolves any meeting whose deadline
// has passed, so time-based transitions happen on the next interaction
// rather than on a timer.
type Session struct {
	mu sync.Mutex

	code      string
	createdAt time.Time
	now       func() time.Time
	rng       *rand.Rand
	catalogs  CatalogSource
	timings   Timings

	phase        Phase
	round        int
	leaderID     string
	config       Config
	players      map[string]*Player
	joinSeq      uint64
	usedAvatars  map[string]int
	lastActivity time.Time

	usage         map[templateKey]int
	meeting       *Meeting
	lastSummary   *MeetingSummary
	revealed      float64
	end           *EndInfo
	sabotageUntil time.Time
}

type JoinResult struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	IsLeader bool   `json:"is_leader"`
}

type KickResult struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	LeaderID string `json:"leader_id"`
}

func NewSession(code string, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.NewStore(nil)
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	now := opts.Now()
	cat := opts.Catalog.Current()
	if cat == nil {
		cat = catalog.Default()
	}
	return &Session{
		code:      strings.ToUpper(code),
		createdAt: now,
		now:       opts.Now,
		rng:       opts.Rand,
		catalogs:  opts.Catalog,
		timings:   opts.Timings,
		phase:     PhaseLobby,
		config: Config{
			RequiredPlayers: RequiredPlayersLimits.Min,
			Impostors:       1,
			TaskCounts:      cat.DefaultCounts(),
			KillCooldown:    opts.Timings.DefaultKillCooldown,
			MeetingDuration: opts.Timings.DefaultMeeting,
			SupportRole:     true,
		},
		players:      map[string]*Player{},
		usedAvatars:  map[string]int{},
		lastActivity: now,
	}
}

func (s *Session) Code() string {
	return s.code
}

// enter locks the session and applies any overdue transition. The caller
// must defer s.mu.Unlock().
func (s *Session) enter() time.Time {
	s.mu.Lock()
	now := s.now()
	s.lastActivity = now
	s.advanceLocked(now)
	return now
}

func (s *Session) advanceLocked(now time.Time) {
	if s.meeting != nil && !now.Before(s.meeting.EndsAt) {
		s.resolveMeetingLocked(now)
	}
}

func (s *Session) Phase() Phase {
	s.enter()
	defer s.mu.Unlock()
	return s.phase
}

// ActivePlayers counts players that have not left. It does not count as
// activity for idle expiry.
func (s *Session) ActivePlayers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeLocked())
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.clone()
}

func (s *Session) AddPlayer(name string) (JoinResult, error) {
	now := s.enter()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return JoinResult{}, ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		return JoinResult{}, ErrNameTooLong
	}
	if s.phase != PhaseLobby {
		return JoinResult{}, ErrGameInProgress
	}
	key := foldName(name)
	for _, p := range s.players {
		if p.Active() && foldName(p.Name) == key {
			return JoinResult{}, ErrNameTaken
		}
	}

	s.joinSeq++
	p := &Player{
		ID:       ids.NewPlayerID(),
		Name:     name,
		Avatar:   s.allocateAvatarLocked(),
		JoinedAt: now,
		joinSeq:  s.joinSeq,
		Alive:    true,
	}
	s.players[p.ID] = p
	if s.leaderID == "" {
		s.leaderID = p.ID
	}
	log.Info().Str("code", s.code).Str("player_id", p.ID).Str("name", p.Name).Msg("player joined")
	return JoinResult{PlayerID: p.ID, Name: p.Name, Avatar: p.Avatar, IsLeader: s.leaderID == p.ID}, nil
}

// Leave removes a lobby player outright. Once a round has started the record
// is kept, marked as left, until the next reset to lobby.
func (s *Session) Leave(playerID string) error {
	now := s.enter()
	defer s.mu.Unlock()

	p, err := s.activePlayerLocked(playerID)
	if err != nil {
		return err
	}
	if s.phase == PhaseLobby {
		s.deletePlayerLocked(p)
		log.Info().Str("code", s.code).Str("player_id", p.ID).Msg("player left lobby")
		return nil
	}

	p.Left = true
	p.Ready = false
	s.releaseAvatarLocked(p.Avatar)
	if p.ID == s.leaderID {
		s.assignLeaderLocked()
	}
	log.Info().Str("code", s.code).Str("player_id", p.ID).Str("phase", string(s.phase)).Msg("player left mid-round")

	if !s.phase.Playing() {
		return nil
	}
	if s.meeting != nil {
		delete(s.meeting.votes, p.ID)
	}
	if s.checkWinLocked(now, winContext{departed: p}) {
		return nil
	}
	if s.meeting != nil && s.allVotedLocked() {
		s.resolveMeetingLocked(now)
	}
	return nil
}

func (s *Session) ToggleReady(playerID string, ready bool) error {
	s.enter()
	defer s.mu.Unlock()

	p, err := s.activePlayerLocked(playerID)
	if err != nil {
		return err
	}
	p.Ready = ready
	return nil
}

// UpdateConfig applies every valid field it is given. The call still fails
// with a combined message when any supplied field is invalid.
func (s *Session) UpdateConfig(requesterID string, upd ConfigUpdate) (Config, error) {
	s.enter()
	defer s.mu.Unlock()

	if _, err := s.activePlayerLocked(requesterID); err != nil {
		return Config{}, err
	}
	if requesterID != s.leaderID {
		return Config{}, ErrNotLeader
	}
	if s.phase != PhaseLobby {
		return Config{}, withMessage(ErrWrongPhase, "settings cannot change after the game has started")
	}
	errs := applyConfigUpdate(&s.config, upd)
	if len(errs) > 0 {
		return s.config.clone(), withMessage(ErrInvalidConfig, strings.Join(errs, " "))
	}
	return s.config.clone(), nil
}

func (s *Session) Kick(requesterID, targetID string) (KickResult, error) {
	s.enter()
	defer s.mu.Unlock()

	if _, err := s.activePlayerLocked(requesterID); err != nil {
		return KickResult{}, err
	}
	if requesterID != s.leaderID {
		return KickResult{}, ErrNotLeader
	}
	if s.phase != PhaseLobby {
		return KickResult{}, withMessage(ErrWrongPhase, "players cannot be kicked after the game has started")
	}
	if requesterID == targetID {
		return KickResult{}, ErrCannotKickSelf
	}
	target, ok := s.players[targetID]
	if !ok {
		return KickResult{}, ErrTargetNotFound
	}
	s.deletePlayerLocked(target)
	log.Info().Str("code", s.code).Str("player_id", target.ID).Str("by", requesterID).Msg("player kicked")
	return KickResult{PlayerID: target.ID, Name: target.Name, LeaderID: s.leaderID}, nil
}

// StartGame draws roles and tasks for a new round. Any active player may
// start once everyone is ready.
func (s *Session) StartGame(requesterID string) error {
	now := s.enter()
	defer s.mu.Unlock()

	if _, err := s.activePlayerLocked(requesterID); err != nil {
		return err
	}
	if s.phase != PhaseLobby {
		return withMessage(ErrWrongPhase, "the game has already started")
	}
	active := s.activeLocked()
	if len(active) < s.config.RequiredPlayers {
		return withMessage(ErrNotEnoughPlayers, fmt.Sprintf("at least %d players are required", s.config.RequiredPlayers))
	}
	for _, p := range active {
		if !p.Ready {
			return ErrNotAllReady
		}
	}
	if s.config.Impostors >= len(active) {
		return ErrTooManyImpostors
	}

	cat := s.catalogs.Current()
	if cat == nil {
		cat = catalog.Default()
	}

	s.round++
	s.phase = PhaseInGame
	s.meeting = nil
	s.lastSummary = nil
	s.revealed = 0
	s.end = nil
	s.sabotageUntil = time.Time{}

	impostors := map[string]bool{}
	for _, idx := range s.rng.Perm(len(active))[:s.config.Impostors] {
		impostors[active[idx].ID] = true
	}
	var crew []*Player
	for _, p := range active {
		p.resetRound()
		p.countedTasks = map[string]bool{}
		if impostors[p.ID] {
			p.Role = RoleImpostor
			p.KillReadyAt = now
			continue
		}
		p.Role = RoleCrewmate
		crew = append(crew, p)
	}
	if s.config.SupportRole && len(crew) >= 2 {
		crew[s.rng.IntN(len(crew))].Support = SupportMedic
	}

	assigned := assignTasks(s.rng, cat, s.config.TaskCounts, active)
	for _, p := range active {
		p.Tasks = assigned.tasks[p.ID]
	}
	s.usage = assigned.usage

	log.Info().
		Str("code", s.code).
		Int("round", s.round).
		Int("players", len(active)).
		Int("impostors", s.config.Impostors).
		Msg("game started")
	return nil
}

// ResetToLobby ends the round from any phase. Players that left mid-round are
// purged here.
func (s *Session) ResetToLobby(requesterID string) error {
	s.enter()
	defer s.mu.Unlock()

	if _, err := s.activePlayerLocked(requesterID); err != nil {
		return err
	}
	if requesterID != s.leaderID {
		return ErrNotLeader
	}
	for id, p := range s.players {
		if p.Left {
			delete(s.players, id)
			continue
		}
		p.Ready = false
		p.resetRound()
	}
	s.phase = PhaseLobby
	s.round = 0
	s.meeting = nil
	s.lastSummary = nil
	s.revealed = 0
	s.end = nil
	s.sabotageUntil = time.Time{}
	s.usage = nil
	s.assignLeaderLocked()
	log.Info().Str("code", s.code).Int("players", len(s.players)).Msg("session reset to lobby")
	return nil
}

func (s *Session) activePlayerLocked(id string) (*Player, error) {
	p, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if p.Left {
		return nil, ErrPlayerLeft
	}
	return p, nil
}

// activeLocked returns active players in join order.
func (s *Session) activeLocked() []*Player {
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		if p.Active() {
			out = append(out, p)
		}
	}
	sortByJoin(out)
	return out
}

func (s *Session) allPlayersLocked() []*Player {
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sortByJoin(out)
	return out
}

func sortByJoin(players []*Player) {
	slices.SortFunc(players, func(a, b *Player) int {
		switch {
		case earlierJoin(a, b):
			return -1
		case earlierJoin(b, a):
			return 1
		default:
			return 0
		}
	})
}

func (s *Session) deletePlayerLocked(p *Player) {
	delete(s.players, p.ID)
	s.releaseAvatarLocked(p.Avatar)
	if p.ID == s.leaderID {
		s.assignLeaderLocked()
	}
}

// assignLeaderLocked makes the earliest-joined active player the leader.
func (s *Session) assignLeaderLocked() {
	s.leaderID = ""
	var leader *Player
	for _, p := range s.players {
		if !p.Active() {
			continue
		}
		if leader == nil || earlierJoin(p, leader) {
			leader = p
		}
	}
	if leader != nil {
		s.leaderID = leader.ID
	}
}

func (s *Session) allocateAvatarLocked() string {
	for _, avatar := range AvatarPool {
		if s.usedAvatars[avatar] == 0 {
			s.usedAvatars[avatar]++
			return avatar
		}
	}
	avatar := AvatarPool[s.rng.IntN(len(AvatarPool))]
	s.usedAvatars[avatar]++
	return avatar
}

func (s *Session) releaseAvatarLocked(avatar string) {
	if s.usedAvatars[avatar] <= 1 {
		delete(s.usedAvatars, avatar)
		return
	}
	s.usedAvatars[avatar]--
}

func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
