package session

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amalg/gridarena/internal/game"
)

// AvatarLookup resolves a player's avatar image address to the short render
// code stored on their fighter.
type AvatarLookup interface {
	ShortCode(ctx context.Context, avatarURL string) (string, error)
}

// Key identifies the one match a channel may host.
type Key struct {
	Guild   string `json:"guild"`
	Channel string `json:"channel"`
}

func (k Key) String() string {
	return k.Guild + "/" + k.Channel
}

// entry wraps a match with the lock that serialises every command on it.
type entry struct {
	key        Key
	mu         sync.Mutex
	match      *game.Match
	lastActive time.Time
}

// Summary is a short listing of a registered match.
type Summary struct {
	Key       Key         `json:"key"`
	MatchID   string      `json:"match_id"`
	Status    string      `json:"status"`
	Fighters  int         `json:"fighters"`
	Round     int         `json:"round"`
	Initiator game.Player `json:"initiator"`
}

// Registry owns every live match and the player membership index.
//
// Locking: mu guards the two maps. Each entry has its own mutex that is held
// for the whole of a command on that match. When both are needed mu is taken
// first. A command that concludes its match releases the entry lock before
// taking mu to unregister it.
type Registry struct {
	mu      sync.RWMutex
	matches map[Key]*entry
	members map[string]*entry

	avatars AvatarLookup
	config  game.Config

	now      func() time.Time
	newID    func() string
	newRand  func() *rand.Rand
	watchMu  sync.RWMutex
	watchers []func(Key, game.Snapshot)
}

// NewRegistry creates an empty registry. Every new match gets a copy of cfg.
func NewRegistry(avatars AvatarLookup, cfg game.Config) *Registry {
	return &Registry{
		matches: make(map[Key]*entry),
		members: make(map[string]*entry),
		avatars: avatars,
		config:  cfg,
		now:     time.Now,
		newID:   uuid.NewString,
		newRand: game.NewRand,
	}
}

// OnChange adds a callback that receives a snapshot after every accepted
// command. Callbacks run without any registry or match lock held.
func (r *Registry) OnChange(fn func(Key, game.Snapshot)) {
	r.watchMu.Lock()
	r.watchers = append(r.watchers, fn)
	r.watchMu.Unlock()
}

// Config returns the rules new matches are created with.
func (r *Registry) Config() game.Config {
	return r.config
}

// Challenge opens a forming match in the channel with p as initiator and
// first fighter.
func (r *Registry) Challenge(ctx context.Context, key Key, p game.Player) (game.Snapshot, error) {
	r.mu.RLock()
	err := r.checkChallengeLocked(key, p)
	r.mu.RUnlock()
	if err != nil {
		return game.Snapshot{}, err
	}

	token, err := r.lookup(ctx, p)
	if err != nil {
		return game.Snapshot{}, err
	}

	r.mu.Lock()
	if err := r.checkChallengeLocked(key, p); err != nil {
		r.mu.Unlock()
		return game.Snapshot{}, err
	}
	m, err := game.NewMatch(r.newID(), key.Guild, key.Channel, p, token, r.config, r.newRand())
	if err != nil {
		r.mu.Unlock()
		return game.Snapshot{}, err
	}
	e := &entry{key: key, match: m, lastActive: r.now()}
	r.matches[key] = e
	r.members[p.ID] = e
	snap := m.Snapshot()
	r.mu.Unlock()

	log.Printf("[ARENA] %s challenged %s (%s)", p.Name, key, m.ID)
	r.notify(key, snap)
	return snap, nil
}

func (r *Registry) checkChallengeLocked(key Key, p game.Player) error {
	if _, ok := r.matches[key]; ok {
		return game.NewError(game.CodeMatchAlreadyExists, "channel", key.String())
	}
	if e, ok := r.members[p.ID]; ok {
		return game.NewError(game.CodePlayerAlreadyInAnotherMatch, "channel", e.key.String())
	}
	return nil
}

// Join adds p to the forming match in the channel.
func (r *Registry) Join(ctx context.Context, key Key, p game.Player) (game.Snapshot, error) {
	// Cheap rejection before paying for the avatar lookup.
	e, err := r.entry(key)
	if err != nil {
		return game.Snapshot{}, err
	}
	if err := r.checkJoin(e, p); err != nil {
		return game.Snapshot{}, err
	}

	token, err := r.lookup(ctx, p)
	if err != nil {
		return game.Snapshot{}, err
	}

	r.mu.Lock()
	cur, ok := r.matches[key]
	if !ok || cur != e {
		r.mu.Unlock()
		return game.Snapshot{}, game.NewError(game.CodeNoMatchInChannel)
	}
	e.mu.Lock()
	if err := r.checkJoinLocked(e, p); err != nil {
		e.mu.Unlock()
		r.mu.Unlock()
		return game.Snapshot{}, err
	}
	if _, err := e.match.AddFighter(p, token); err != nil {
		e.mu.Unlock()
		r.mu.Unlock()
		return game.Snapshot{}, err
	}
	r.members[p.ID] = e
	e.lastActive = r.now()
	snap := e.match.Snapshot()
	e.mu.Unlock()
	r.mu.Unlock()

	log.Printf("[ARENA] %s joined %s", p.Name, key)
	r.notify(key, snap)
	return snap, nil
}

func (r *Registry) checkJoin(e *entry, p game.Player) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	return r.checkJoinLocked(e, p)
}

// checkJoinLocked runs the join checks in the order players see them. Both
// locks must be held.
func (r *Registry) checkJoinLocked(e *entry, p game.Player) error {
	if e.match.Status != game.StatusForming {
		return game.NewError(game.CodeMatchAlreadyStarted)
	}
	if other, ok := r.members[p.ID]; ok {
		return game.NewError(game.CodePlayerAlreadyInAnotherMatch, "channel", other.key.String())
	}
	if len(e.match.Roster) >= e.match.Config.MaxFighters {
		return game.NewError(game.CodeRosterFull, "max", fmt.Sprint(e.match.Config.MaxFighters))
	}
	return nil
}

// Retire withdraws p from the forming match in the channel. The last fighter
// to leave removes the match.
func (r *Registry) Retire(key Key, p game.Player) (game.Snapshot, error) {
	r.mu.Lock()
	e, ok := r.matches[key]
	if !ok {
		r.mu.Unlock()
		return game.Snapshot{}, game.NewError(game.CodeNoMatchInChannel)
	}
	e.mu.Lock()
	if err := e.match.RemoveFighter(p.ID); err != nil {
		e.mu.Unlock()
		r.mu.Unlock()
		return game.Snapshot{}, err
	}
	if r.members[p.ID] == e {
		delete(r.members, p.ID)
	}
	if e.match.Status == game.StatusConcluded {
		delete(r.matches, key)
	}
	e.lastActive = r.now()
	snap := e.match.Snapshot()
	e.mu.Unlock()
	r.mu.Unlock()

	log.Printf("[ARENA] %s retired from %s", p.Name, key)
	r.notify(key, snap)
	return snap, nil
}

// Start begins the forming match in the channel. Only the initiator may.
func (r *Registry) Start(key Key, p game.Player) (game.Snapshot, error) {
	e, err := r.entry(key)
	if err != nil {
		return game.Snapshot{}, err
	}

	e.mu.Lock()
	if err := e.match.Start(p); err != nil {
		e.mu.Unlock()
		return game.Snapshot{}, err
	}
	e.lastActive = r.now()
	snap := e.match.Snapshot()
	e.mu.Unlock()

	log.Printf("[ARENA] Match %s started with %d fighters", key, len(snap.Fighters))
	r.notify(key, snap)
	return snap, nil
}

// End concludes and removes the match in the channel. p must be an
// administrator.
func (r *Registry) End(key Key, p game.Player) (game.Snapshot, error) {
	if !p.Admin {
		return game.Snapshot{}, game.NewError(game.CodeNotAdministrator)
	}

	r.mu.Lock()
	e, ok := r.matches[key]
	if !ok {
		r.mu.Unlock()
		return game.Snapshot{}, game.NewError(game.CodeNoMatchInChannel)
	}
	e.mu.Lock()
	e.match.End()
	r.unregisterLocked(e)
	snap := e.match.Snapshot()
	e.mu.Unlock()
	r.mu.Unlock()

	log.Printf("[ARENA] %s ended %s", p.Name, key)
	r.notify(key, snap)
	return snap, nil
}

// Move moves p's fighter by (dx, dy) on their turn.
func (r *Registry) Move(key Key, p game.Player, dx, dy int) (game.MoveResult, game.Snapshot, error) {
	var res game.MoveResult
	snap, err := r.onTurn(key, p, func(m *game.Match, f *game.Fighter) (game.Sweep, error) {
		var err error
		res, err = m.AttemptMove(f, dx, dy)
		return res.Sweep, err
	})
	return res, snap, err
}

// Attack strikes along dir with the equipped weapon.
func (r *Registry) Attack(key Key, p game.Player, dir game.Direction) (game.ActionResult, game.Snapshot, error) {
	return r.act(key, p, func(m *game.Match, f *game.Fighter) (game.ActionResult, error) {
		return m.Attack(f, dir)
	})
}

// Throw hurls a dagger at the fighter with the given mention.
func (r *Registry) Throw(key Key, p game.Player, mention string) (game.ActionResult, game.Snapshot, error) {
	return r.act(key, p, func(m *game.Match, f *game.Fighter) (game.ActionResult, error) {
		return m.Throw(f, mention)
	})
}

// Shove pushes the first fighter along dir with an axe.
func (r *Registry) Shove(key Key, p game.Player, dir game.Direction) (game.ActionResult, game.Snapshot, error) {
	return r.act(key, p, func(m *game.Match, f *game.Fighter) (game.ActionResult, error) {
		return m.Shove(f, dir)
	})
}

// Disarm knocks the weapon out of the first fighter's hands along dir.
func (r *Registry) Disarm(key Key, p game.Player, dir game.Direction) (game.ActionResult, game.Snapshot, error) {
	return r.act(key, p, func(m *game.Match, f *game.Fighter) (game.ActionResult, error) {
		return m.Disarm(f, dir)
	})
}

// Pass spends one action doing nothing.
func (r *Registry) Pass(key Key, p game.Player) (game.ActionResult, game.Snapshot, error) {
	return r.act(key, p, func(m *game.Match, f *game.Fighter) (game.ActionResult, error) {
		return m.Pass(f), nil
	})
}

// Snapshot returns the current state of the match in the channel.
func (r *Registry) Snapshot(key Key) (game.Snapshot, error) {
	e, err := r.entry(key)
	if err != nil {
		return game.Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.match.Snapshot(), nil
}

// List summarises every registered match, ordered by guild then channel.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.matches))
	for _, e := range r.matches {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, Summary{
			Key:       e.key,
			MatchID:   e.match.ID,
			Status:    e.match.Status.String(),
			Fighters:  len(e.match.Roster),
			Round:     e.match.Round,
			Initiator: e.match.Initiator,
		})
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Guild != out[j].Key.Guild {
			return out[i].Key.Guild < out[j].Key.Guild
		}
		return out[i].Key.Channel < out[j].Key.Channel
	})
	return out
}

// Counts returns how many matches are forming and how many are active.
func (r *Registry) Counts() (forming, active int) {
	for _, s := range r.List() {
		switch s.Status {
		case game.StatusForming.String():
			forming++
		case game.StatusActive.String():
			active++
		}
	}
	return forming, active
}

// MatchOf returns the channel p currently has a fighter in.
func (r *Registry) MatchOf(playerID string) (Key, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.members[playerID]
	if !ok {
		return Key{}, false
	}
	return e.key, true
}

// ReapIdle concludes and removes every match that has seen no accepted
// command for longer than timeout.
func (r *Registry) ReapIdle(timeout time.Duration) []Key {
	now := r.now()
	var reaped []Key
	var snaps []game.Snapshot

	r.mu.Lock()
	for key, e := range r.matches {
		e.mu.Lock()
		if now.Sub(e.lastActive) > timeout {
			e.match.End()
			r.unregisterLocked(e)
			reaped = append(reaped, key)
			snaps = append(snaps, e.match.Snapshot())
		}
		e.mu.Unlock()
	}
	r.mu.Unlock()

	for i, key := range reaped {
		r.notify(key, snaps[i])
	}
	return reaped
}

// onTurn runs fn against the current fighter when it belongs to p. The match
// lock is held for the whole of fn.
func (r *Registry) onTurn(key Key, p game.Player, fn func(*game.Match, *game.Fighter) (game.Sweep, error)) (game.Snapshot, error) {
	e, err := r.entry(key)
	if err != nil {
		return game.Snapshot{}, err
	}

	e.mu.Lock()
	m := e.match
	switch m.Status {
	case game.StatusForming:
		e.mu.Unlock()
		return game.Snapshot{}, game.NewError(game.CodeMatchNotStarted)
	case game.StatusConcluded:
		e.mu.Unlock()
		return game.Snapshot{}, game.NewError(game.CodeNoMatchInChannel)
	}
	f := m.CurrentFighter()
	if f == nil || f.Player.ID != p.ID {
		e.mu.Unlock()
		return game.Snapshot{}, game.NewError(game.CodeNotPlayerTurn, "player", p.Mention)
	}

	sweep, err := fn(m, f)
	if err != nil {
		e.mu.Unlock()
		return game.Snapshot{}, err
	}
	e.lastActive = r.now()
	snap := m.Snapshot()
	e.mu.Unlock()

	if len(sweep.Eliminated) > 0 || sweep.Concluded {
		r.release(e, sweep)
	}
	r.notify(key, snap)
	return snap, nil
}

func (r *Registry) act(key Key, p game.Player, fn func(*game.Match, *game.Fighter) (game.ActionResult, error)) (game.ActionResult, game.Snapshot, error) {
	var res game.ActionResult
	snap, err := r.onTurn(key, p, func(m *game.Match, f *game.Fighter) (game.Sweep, error) {
		var err error
		res, err = fn(m, f)
		return res.Sweep, err
	})
	return res, snap, err
}

// release frees eliminated players for other matches and unregisters a
// concluded match.
func (r *Registry) release(e *entry, sweep game.Sweep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range sweep.Eliminated {
		if r.members[p.ID] == e {
			delete(r.members, p.ID)
		}
	}
	if !sweep.Concluded {
		return
	}
	e.mu.Lock()
	r.unregisterLocked(e)
	e.mu.Unlock()
	if sweep.Victor != nil {
		log.Printf("[ARENA] %s won %s", sweep.Victor.Name, e.key)
	} else {
		log.Printf("[ARENA] %s ended with no survivors", e.key)
	}
}

// unregisterLocked removes e and its members. Both locks must be held.
func (r *Registry) unregisterLocked(e *entry) {
	if r.matches[e.key] == e {
		delete(r.matches, e.key)
	}
	for _, f := range e.match.Roster {
		if r.members[f.Player.ID] == e {
			delete(r.members, f.Player.ID)
		}
	}
}

func (r *Registry) entry(key Key) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.matches[key]
	if !ok {
		return nil, game.NewError(game.CodeNoMatchInChannel)
	}
	return e, nil
}

func (r *Registry) lookup(ctx context.Context, p game.Player) (string, error) {
	token, err := r.avatars.ShortCode(ctx, p.AvatarURL)
	if err != nil {
		return "", fmt.Errorf("avatar lookup for %s: %w", p.ID, err)
	}
	return token, nil
}

func (r *Registry) notify(key Key, snap game.Snapshot) {
	r.watchMu.RLock()
	watchers := r.watchers
	r.watchMu.RUnlock()
	for _, fn := range watchers {
		fn(key, snap)
	}
}
