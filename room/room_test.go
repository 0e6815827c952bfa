package room

import (
	"errors"
	"testing"
	"time"

	"github.com/wfunc/coinflip/models"
	"github.com/wfunc/coinflip/state"
)

func newTestRoom(id string) *Room {
	a := models.NewPlayer("alice", "sess-a", 1000, time.Now())
	b := models.NewPlayer("bob", "sess-b", 1000, time.Now())
	return NewRoom(id, a, b, 100, 30, time.Now())
}

func TestRoomManager_AddAndGetRoom(t *testing.T) {
	manager := NewRoomManager()
	room := newTestRoom("test_room_1")
	manager.Add(room)

	retrieved, exists := manager.GetRoom("test_room_1")
	if !exists {
		t.Fatal("GetRoom should find the added room")
	}
	if retrieved != room {
		t.Error("GetRoom should return the same room instance")
	}
	if !manager.IsCurrent(room) {
		t.Error("IsCurrent should be true for the registered room")
	}

	manager.Remove("test_room_1")
	if manager.Count() != 0 {
		t.Errorf("Expected 0 rooms after removal, got %d", manager.Count())
	}
	if manager.IsCurrent(room) {
		t.Error("IsCurrent should be false once the room is removed")
	}
}

func TestRoomManager_IsCurrentRejectsReplacedRoom(t *testing.T) {
	manager := NewRoomManager()
	old := newTestRoom("same_id")
	manager.Add(old)
	manager.Add(newTestRoom("same_id"))

	if manager.IsCurrent(old) {
		t.Error("a replaced room must not be treated as current")
	}
}

func TestRoom_NewRoomStartsBetting(t *testing.T) {
	room := newTestRoom("r")

	if room.Phase() != PhaseBetting {
		t.Errorf("Expected betting phase, got %s", room.Phase())
	}
	if room.Timer != 30 {
		t.Errorf("Expected countdown 30, got %d", room.Timer)
	}
	if room.Opponent("alice").ID != "bob" || room.Opponent("bob").ID != "alice" {
		t.Error("Opponent should return the other seat")
	}
	if room.Opponent("carol") != nil {
		t.Error("Opponent of a stranger should be nil")
	}
}

func TestRoom_PlaceBet(t *testing.T) {
	room := newTestRoom("r")

	if err := room.PlaceBet("alice", models.ChoiceHeads); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if room.BetsComplete() {
		t.Fatal("one bet should not complete the room")
	}

	// last write wins
	_ = room.PlaceBet("alice", models.ChoiceTails)
	if c, _ := room.Bet("alice"); c != models.ChoiceTails {
		t.Errorf("Expected overwritten bet tails, got %s", c)
	}

	if err := room.PlaceBet("carol", models.ChoiceHeads); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("Expected ErrNotParticipant, got %v", err)
	}

	_ = room.PlaceBet("bob", models.ChoiceHeads)
	if !room.BetsComplete() {
		t.Error("two bets should complete the room")
	}
	if len(room.Bets) != 2 {
		t.Errorf("Expected 2 bets, got %d", len(room.Bets))
	}
}

func TestRoom_PlaceBetAfterBettingClosed(t *testing.T) {
	room := newTestRoom("r")
	if err := room.Transition(PhaseFlipping); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	if err := room.PlaceBet("alice", models.ChoiceHeads); !errors.Is(err, ErrBettingClosed) {
		t.Errorf("Expected ErrBettingClosed, got %v", err)
	}
}

func TestRoom_TransitionsAreOneWay(t *testing.T) {
	room := newTestRoom("r")

	if err := room.Transition(PhaseFlipping); err != nil {
		t.Fatalf("betting -> flipping: %v", err)
	}
	if err := room.Transition(PhaseFlipping); !errors.Is(err, state.ErrTransitionNotAllowed) {
		t.Errorf("second flipping transition should fail, got %v", err)
	}
	if err := room.Transition(PhaseBetting); !errors.Is(err, state.ErrTransitionNotAllowed) {
		t.Errorf("flipping -> betting should fail, got %v", err)
	}
	if err := room.Transition(PhaseResolved); err != nil {
		t.Fatalf("flipping -> resolved: %v", err)
	}
	if err := room.Transition(PhaseClosed); err != nil {
		t.Fatalf("resolved -> closed: %v", err)
	}
	if err := room.Transition(PhaseClosed); !errors.Is(err, state.ErrTransitionNotAllowed) {
		t.Errorf("closed is terminal, got %v", err)
	}
}

func TestRoom_TickStopsAtZero(t *testing.T) {
	room := newTestRoom("r")
	room.Timer = 2

	if got := room.Tick(); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
	if got := room.Tick(); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
	if got := room.Tick(); got != 0 {
		t.Errorf("Expected countdown to stay at 0, got %d", got)
	}
}

func TestRoom_TakeTimers(t *testing.T) {
	room := newTestRoom("r")
	room.CountdownTimer = 3
	room.CleanupTimer = 9

	ids := room.TakeTimers()
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 9 {
		t.Errorf("Unexpected timer ids: %v", ids)
	}
	if len(room.TakeTimers()) != 0 {
		t.Error("TakeTimers should forget the ids it returned")
	}
}

func TestRoom_PhaseHooks(t *testing.T) {
	room := newTestRoom("r")

	var events []string
	room.OnExit(PhaseBetting, func(from, to Phase) {
		events = append(events, "exit "+string(from)+" -> "+string(to))
	})
	room.OnEnter(PhaseClosed, func(from, to Phase) {
		events = append(events, "closed from "+string(from))
	})

	if !room.Can(PhaseResolved) {
		t.Fatal("betting -> resolved should be allowed")
	}
	if err := room.Transition(PhaseResolved); err != nil {
		t.Fatalf("betting -> resolved: %v", err)
	}
	if room.Can(PhaseFlipping) {
		t.Error("resolved -> flipping should not be allowed")
	}
	if err := room.Transition(PhaseClosed); err != nil {
		t.Fatalf("resolved -> closed: %v", err)
	}
	if room.Can(PhaseClosed) {
		t.Error("closed is terminal")
	}

	want := []string{"exit betting -> resolved", "closed from resolved"}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("Unexpected hook events: %v", events)
	}
}
