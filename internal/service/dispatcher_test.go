package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overboard-game/server/internal/domain"
	"github.com/overboard-game/server/internal/repository"
)

// fakeGameRepo stores game documents in memory, round-tripping through
// JSON like the pgx repository does.
type fakeGameRepo struct {
	mu    sync.Mutex
	docs  map[int64][]byte
	saves int
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{docs: map[int64][]byte{}}
}

func (r *fakeGameRepo) Load(_ context.Context, _ repository.DBTX, id int64) (*domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	var game domain.Game
	if err := json.Unmarshal(doc, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *fakeGameRepo) Save(_ context.Context, _ repository.DBTX, game *domain.Game) error {
	doc, err := json.Marshal(game)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[game.ID] = doc
	r.saves++
	return nil
}

func (r *fakeGameRepo) Create(ctx context.Context, db repository.DBTX, game *domain.Game) error {
	return r.Save(ctx, db, game)
}

func (r *fakeGameRepo) Exists(_ context.Context, _ repository.DBTX, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.docs[id]
	return ok, nil
}

func (r *fakeGameRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *fakeGameRepo) stored(t *testing.T, id int64) *domain.Game {
	t.Helper()
	game, err := r.Load(context.Background(), nil, id)
	require.NoError(t, err)
	require.NotNil(t, game)
	return game
}

type fakeNotifier struct {
	mu     sync.Mutex
	topics []string
}

func (n *fakeNotifier) Publish(_ context.Context, topic string, _, _ []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topic)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.topics)
}

func testDispatcher(t *testing.T) (*Dispatcher, *fakeGameRepo, *fakeNotifier) {
	t.Helper()
	repo := newFakeGameRepo()
	notifier := &fakeNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(repo, nil, notifier, logger), repo, notifier
}

func playerEvent(t *testing.T, payload, from string) domain.PlayerEvent {
	t.Helper()
	event, err := domain.DecodePlayerEvent([]byte(payload), from)
	require.NoError(t, err)
	return event
}

func seedGame(t *testing.T, repo *fakeGameRepo, game *domain.Game) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), nil, game))
}

func eventTypes(events []domain.Event) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

func TestDispatchUnknownGame(t *testing.T) {
	d, _, _ := testDispatcher(t)

	_, err := d.Dispatch(context.Background(), 404, playerEvent(t, `{"type":"PlayerConnect"}`, "p1"))
	assertErrorCode(t, err, "NOT_FOUND")
}

func TestDispatchNoHandler(t *testing.T) {
	d, repo, _ := testDispatcher(t)
	seedGame(t, repo, domain.NewGame(1))

	rogue := domain.NewNameChange()
	rogue.Type = "Bogus"

	_, err := d.Dispatch(context.Background(), 1, rogue)
	assertErrorCode(t, err, "DISPATCH_ERROR")
}

func TestDispatchFirstConnectBecomesHost(t *testing.T) {
	d, repo, notifier := testDispatcher(t)
	seedGame(t, repo, domain.NewGame(1))

	responses, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"PlayerConnect"}`, "p1"))
	require.NoError(t, err)
	require.Equal(t, []string{"HostChange"}, eventTypes(responses))
	assert.Equal(t, "p1", responses[0].(*domain.HostChange).NewHost)

	stored := repo.stored(t, 1)
	assert.Equal(t, "p1", stored.Host)
	assert.Contains(t, stored.Players, "p1")
	assert.Equal(t, 1, notifier.count())

	t.Run("second join changes no host", func(t *testing.T) {
		responses, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"PlayerConnect"}`, "p2"))
		require.NoError(t, err)
		assert.Empty(t, responses)
		assert.Equal(t, "p1", repo.stored(t, 1).Host)
	})
}

func TestDispatchDuplicateConnectRejected(t *testing.T) {
	d, repo, notifier := testDispatcher(t)
	seedGame(t, repo, domain.NewGame(1))

	_, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"PlayerConnect"}`, "p1"))
	require.NoError(t, err)
	savesBefore := repo.saveCount()
	notifiesBefore := notifier.count()

	_, err = d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"PlayerConnect"}`, "p1"))
	assertErrorCode(t, err, "STATE_ERROR")

	// The rejected dispatch persisted nothing and notified nobody.
	assert.Equal(t, savesBefore, repo.saveCount())
	assert.Equal(t, notifiesBefore, notifier.count())
}

func TestDispatchStartRequest(t *testing.T) {
	d, repo, _ := testDispatcher(t)
	seedGame(t, repo, domain.NewGame(1))

	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"PlayerConnect"}`, id))
		require.NoError(t, err)
	}

	t.Run("rejected for non-host", func(t *testing.T) {
		_, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"StartRequest"}`, "p2"))
		assertErrorCode(t, err, "AUTHORIZATION_ERROR")
		assert.False(t, repo.stored(t, 1).Started(), "a rejected start leaves the lobby untouched")
	})

	responses, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"StartRequest"}`, "p1"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GameStart",
		"NewRelationships", "NewRelationships", "NewRelationships",
		"NewSupplies", "NewSupplies", "NewSupplies",
		"TurnChange",
		"SupplyShowcase",
	}, eventTypes(responses))

	stored := repo.stored(t, 1)
	assert.Equal(t, domain.PhaseMorning, stored.Phase)
	assert.NotEmpty(t, stored.ActivePlayer)
	assert.Len(t, stored.TurnQueue, 2)
	assert.Len(t, stored.SupplyStash, 3)
	for _, player := range stored.Players {
		assert.NotNil(t, player.Character)
		assert.Len(t, player.Supplies, 1)
		assert.NotEmpty(t, player.Friend)
		assert.NotEmpty(t, player.Enemy)
	}

	turn := responses[7].(*domain.TurnChange)
	assert.Equal(t, stored.ActivePlayer, turn.NewActivePlayer)
	showcase := responses[8].(*domain.SupplyShowcase)
	assert.Equal(t, []string{stored.ActivePlayer}, showcase.EventTargets().IDs)

	t.Run("no second start", func(t *testing.T) {
		_, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"StartRequest"}`, "p1"))
		assertErrorCode(t, err, "STATE_ERROR")
	})
}

// morningGame builds a started two-player game in Morning with the given
// turn state, bypassing the start deal for precision.
func morningGame(t *testing.T, active string, queue []string, stash []domain.Supply) *domain.Game {
	t.Helper()
	game := domain.NewGame(1)
	connectPlayers(t, game, "p1", "p2")
	game.Players["p1"].Character = &domain.Character{Name: "a", Order: 1}
	game.Players["p2"].Character = &domain.Character{Name: "b", Order: 2}
	require.NoError(t, game.ApplyEvent(domain.NewPhaseChange(domain.PhaseMorning)))
	game.ActivePlayer = active
	game.TurnQueue = queue
	game.SupplyStash = knownSupplies(stash)
	return game
}

func connectPlayers(t *testing.T, game *domain.Game, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, game.ApplyEvent(playerEvent(t, `{"type":"PlayerConnect"}`, id)))
	}
}

func knownSupplies(supplies []domain.Supply) []domain.Hidden[domain.Supply] {
	out := make([]domain.Hidden[domain.Supply], len(supplies))
	for i, s := range supplies {
		out[i] = domain.Known(s)
	}
	return out
}

func TestDispatchTakeSupply(t *testing.T) {
	water := domain.Supply{Type: "water", Points: 2}
	oar := domain.Supply{Type: "oar", Points: 1}

	t.Run("out of turn", func(t *testing.T) {
		d, repo, _ := testDispatcher(t)
		seedGame(t, repo, morningGame(t, "p1", []string{"p2"}, []domain.Supply{water, oar}))

		_, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"TakeSupply","supply":{"type":"water","points":2}}`, "p2"))
		assertErrorCode(t, err, "AUTHORIZATION_ERROR")
	})

	t.Run("mid-queue take advances the turn", func(t *testing.T) {
		d, repo, _ := testDispatcher(t)
		seedGame(t, repo, morningGame(t, "p1", []string{"p2"}, []domain.Supply{water, oar}))

		responses, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"TakeSupply","supply":{"type":"water","points":2}}`, "p1"))
		require.NoError(t, err)
		require.Equal(t, []string{"TurnChange", "SupplyShowcase"}, eventTypes(responses))
		assert.Equal(t, "p2", responses[0].(*domain.TurnChange).NewActivePlayer)

		stored := repo.stored(t, 1)
		assert.Len(t, stored.SupplyStash, 1)
		assert.Len(t, stored.Players["p1"].Supplies, 1)
	})

	t.Run("final take opens day", func(t *testing.T) {
		d, repo, _ := testDispatcher(t)
		seedGame(t, repo, morningGame(t, "p2", nil, []domain.Supply{oar}))

		responses, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"TakeSupply","supply":{"type":"oar","points":1}}`, "p2"))
		require.NoError(t, err)
		require.Equal(t, []string{"PhaseChange", "TurnChange"}, eventTypes(responses))
		assert.Equal(t, domain.PhaseDay, responses[0].(*domain.PhaseChange).NewPhase)
		assert.Equal(t, "p1", responses[1].(*domain.TurnChange).NewActivePlayer, "day reseats the turn order")

		stored := repo.stored(t, 1)
		assert.Equal(t, domain.PhaseDay, stored.Phase)
		assert.Equal(t, []string{"p2"}, stored.TurnQueue)
	})
}

// dayGame builds a started two-player game sitting in Day.
func dayGame(t *testing.T, active string, queue []string) *domain.Game {
	t.Helper()
	game := morningGame(t, active, queue, nil)
	require.NoError(t, game.ApplyEvent(domain.NewPhaseChange(domain.PhaseDay)))
	game.ActivePlayer = active
	game.TurnQueue = queue
	return game
}

func TestDispatchNavigation(t *testing.T) {
	t.Run("request out of turn", func(t *testing.T) {
		d, repo, _ := testDispatcher(t)
		seedGame(t, repo, dayGame(t, "p1", []string{"p2"}))

		_, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"NavigationRequest"}`, "p2"))
		assertErrorCode(t, err, "AUTHORIZATION_ERROR")
	})

	t.Run("request after rowing", func(t *testing.T) {
		d, repo, _ := testDispatcher(t)
		game := dayGame(t, "p1", []string{"p2"})
		game.Players["p1"].RowedThisTurn = true
		seedGame(t, repo, game)

		_, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"NavigationRequest"}`, "p1"))
		assertErrorCode(t, err, "AUTHORIZATION_ERROR")
	})

	t.Run("offer, choice, turn change", func(t *testing.T) {
		d, repo, _ := testDispatcher(t)
		seedGame(t, repo, dayGame(t, "p1", []string{"p2"}))

		responses, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"NavigationRequest"}`, "p1"))
		require.NoError(t, err)
		require.Equal(t, []string{"NavigationOffer"}, eventTypes(responses))
		offer := responses[0].(*domain.NavigationOffer)
		assert.Equal(t, []string{"p1"}, offer.EventTargets().IDs)
		require.Len(t, offer.Navigations, 2)

		chosen, known := offer.Navigations[0].Value()
		require.True(t, known)
		choiceJSON, err := json.Marshal(map[string]any{"type": "NavigationChoice", "navigation": chosen})
		require.NoError(t, err)

		responses, err = d.Dispatch(context.Background(), 1, playerEvent(t, string(choiceJSON), "p1"))
		require.NoError(t, err)
		require.Equal(t, []string{"TurnChange"}, eventTypes(responses))
		assert.Equal(t, "p2", responses[0].(*domain.TurnChange).NewActivePlayer)

		stored := repo.stored(t, 1)
		assert.Len(t, stored.NavigationStash, 1)
		assert.Empty(t, stored.OfferedNavigations)
		assert.True(t, stored.Players["p1"].RowedThisTurn)
	})

	t.Run("last choice closes into evening", func(t *testing.T) {
		d, repo, _ := testDispatcher(t)
		seedGame(t, repo, dayGame(t, "p2", nil))

		responses, err := d.Dispatch(context.Background(), 1, playerEvent(t, `{"type":"NavigationRequest"}`, "p2"))
		require.NoError(t, err)
		offer := responses[0].(*domain.NavigationOffer)
		chosen, _ := offer.Navigations[1].Value()
		choiceJSON, err := json.Marshal(map[string]any{"type": "NavigationChoice", "navigation": chosen})
		require.NoError(t, err)

		responses, err = d.Dispatch(context.Background(), 1, playerEvent(t, string(choiceJSON), "p2"))
		require.NoError(t, err)
		require.Equal(t, []string{"PhaseChange"}, eventTypes(responses))
		assert.Equal(t, domain.PhaseEvening, responses[0].(*domain.PhaseChange).NewPhase)
		assert.Equal(t, domain.PhaseEvening, repo.stored(t, 1).Phase)
	})
}

func TestRegisterDuplicateHandlerPanics(t *testing.T) {
	d, _, _ := testDispatcher(t)
	assert.Panics(t, func() {
		d.register("PlayerConnect", handlePlayerConnect)
	})
}

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok, "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}
