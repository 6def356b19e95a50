package achievement

import (
	"context"
	"testing"
	"time"

	"github.com/vocalis-app/vocalis/internal/store"
	"github.com/vocalis-app/vocalis/internal/store/memstore"
)

func TestDispatcher_ProcessesProgressEvent(t *testing.T) {
	st := memstore.New()
	d := NewDispatcher(NewEvaluator(st))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	rec, err := st.UpsertProgress(ctx, store.ProgressRecord{
		LearnerID: "u1", Word: "CAT", Accuracy: 95, Mastered: true, Level: "ANIMALS_1",
	})
	if err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}
	d.ProgressChanged("u1", rec)

	deadline := time.After(2 * time.Second)
	for {
		grants, err := st.GrantsByLearner(ctx, "u1")
		if err != nil {
			t.Fatalf("GrantsByLearner: %v", err)
		}
		if len(grants) == 1 && grants[0].AchievementID == FirstMastery {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("grant not processed, have %+v", grants)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestDispatcher_ProcessesScoreEvent(t *testing.T) {
	st := memstore.New()
	d := NewDispatcher(NewEvaluator(st))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.ScoreSubmitted("u1", 1200)

	deadline := time.After(2 * time.Second)
	for {
		grants, err := st.GrantsByLearner(ctx, "u1")
		if err != nil {
			t.Fatalf("GrantsByLearner: %v", err)
		}
		if len(grants) == 2 {
			ids := map[string]bool{}
			for _, g := range grants {
				ids[g.AchievementID] = true
			}
			if !ids[Contender] || !ids[TimeAttackPro] {
				t.Fatalf("grants = %+v", grants)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("grants not processed, have %+v", grants)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	st := memstore.New()
	d := NewDispatcher(NewEvaluator(st), WithQueueSize(1))

	// No worker running: the second event must be dropped, not block.
	d.ScoreSubmitted("u1", 100)
	d.ScoreSubmitted("u1", 200)

	if n := len(d.events); n != 1 {
		t.Errorf("queue holds %d events, want 1", n)
	}
}
