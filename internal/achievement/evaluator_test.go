package achievement

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/observe"
	"github.com/vocalis-app/vocalis/internal/store"
	"github.com/vocalis-app/vocalis/internal/store/memstore"
)

func grantIDs(t *testing.T, st *memstore.Store, learnerID string) map[string]bool {
	t.Helper()
	grants, err := st.GrantsByLearner(context.Background(), learnerID)
	if err != nil {
		t.Fatalf("GrantsByLearner: %v", err)
	}
	ids := make(map[string]bool, len(grants))
	for _, g := range grants {
		ids[g.AchievementID] = true
	}
	return ids
}

func upsert(t *testing.T, st *memstore.Store, learnerID, word string, mastered bool, level string, date time.Time) store.ProgressRecord {
	t.Helper()
	rec, err := st.UpsertProgress(context.Background(), store.ProgressRecord{
		LearnerID: learnerID,
		Word:      word,
		Accuracy:  90,
		Mastered:  mastered,
		Level:     level,
		Date:      date,
	})
	if err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}
	return rec
}

func TestOnProgress_FirstMastery(t *testing.T) {
	st := memstore.New()
	ev := NewEvaluator(st)
	ctx := context.Background()

	rec := upsert(t, st, "u1", "CAT", false, "ANIMALS_1", time.Now())
	if err := ev.OnProgress(ctx, "u1", rec); err != nil {
		t.Fatalf("OnProgress: %v", err)
	}
	if ids := grantIDs(t, st, "u1"); len(ids) != 0 {
		t.Fatalf("unmastered attempt earned %v", ids)
	}

	rec = upsert(t, st, "u1", "CAT", true, "ANIMALS_1", time.Now())
	if err := ev.OnProgress(ctx, "u1", rec); err != nil {
		t.Fatalf("OnProgress: %v", err)
	}
	ids := grantIDs(t, st, "u1")
	if !ids[FirstMastery] {
		t.Error("first mastery not granted")
	}
	if ids[WordWizard] {
		t.Error("ten-word achievement granted after one mastery")
	}
}

func TestOnProgress_WordWizardAtTen(t *testing.T) {
	st := memstore.New()
	ev := NewEvaluator(st)
	ctx := context.Background()

	words := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	var rec store.ProgressRecord
	for i, w := range words {
		rec = upsert(t, st, "u1", w, true, "ANIMALS_1", time.Now())
		if err := ev.OnProgress(ctx, "u1", rec); err != nil {
			t.Fatalf("OnProgress: %v", err)
		}
		if i == 8 && grantIDs(t, st, "u1")[WordWizard] {
			t.Fatal("ten-word achievement granted at nine")
		}
	}
	if !grantIDs(t, st, "u1")[WordWizard] {
		t.Error("ten-word achievement not granted at ten")
	}
}

func TestOnProgress_StreakOfThree(t *testing.T) {
	st := memstore.New()
	ev := NewEvaluator(st)
	ctx := context.Background()
	now := time.Now()

	upsert(t, st, "u1", "A", true, "ANIMALS_1", now.AddDate(0, 0, -2))
	upsert(t, st, "u1", "B", true, "ANIMALS_1", now.AddDate(0, 0, -1))
	rec := upsert(t, st, "u1", "C", true, "ANIMALS_1", now)

	if err := ev.OnProgress(ctx, "u1", rec); err != nil {
		t.Fatalf("OnProgress: %v", err)
	}
	if !grantIDs(t, st, "u1")[HeatingUp] {
		t.Error("streak achievement not granted at three days")
	}
}

func TestOnProgress_NoStreakWithGap(t *testing.T) {
	st := memstore.New()
	ev := NewEvaluator(st)
	ctx := context.Background()
	now := time.Now()

	upsert(t, st, "u1", "A", true, "ANIMALS_1", now.AddDate(0, 0, -4))
	upsert(t, st, "u1", "B", true, "ANIMALS_1", now.AddDate(0, 0, -3))
	rec := upsert(t, st, "u1", "C", true, "ANIMALS_1", now)

	if err := ev.OnProgress(ctx, "u1", rec); err != nil {
		t.Fatalf("OnProgress: %v", err)
	}
	if grantIDs(t, st, "u1")[HeatingUp] {
		t.Error("streak achievement granted across a gap")
	}
}

func TestOnProgress_PictureRoundCompletion(t *testing.T) {
	st := memstore.New()
	ev := NewEvaluator(st)
	ctx := context.Background()

	if err := content.SeedPictureRound(ctx, st); err != nil {
		t.Fatalf("SeedPictureRound: %v", err)
	}
	level, err := st.Level(ctx, content.PictureRoundID)
	if err != nil {
		t.Fatalf("Level: %v", err)
	}

	var rec store.ProgressRecord
	for i, w := range level.Words {
		rec = upsert(t, st, "u1", w.Text, true, content.PictureRoundID, time.Now())
		if err := ev.OnProgress(ctx, "u1", rec); err != nil {
			t.Fatalf("OnProgress: %v", err)
		}
		earned := grantIDs(t, st, "u1")[VisualLearner]
		if i < len(level.Words)-1 && earned {
			t.Fatalf("completion granted after %d of %d words", i+1, len(level.Words))
		}
	}
	if !grantIDs(t, st, "u1")[VisualLearner] {
		t.Error("completion not granted with every word mastered")
	}
}

func TestOnProgress_PictureRoundCheckOnlyOnThatLevel(t *testing.T) {
	st := memstore.New()
	ev := NewEvaluator(st)
	ctx := context.Background()

	if err := content.SeedPictureRound(ctx, st); err != nil {
		t.Fatalf("SeedPictureRound: %v", err)
	}
	level, err := st.Level(ctx, content.PictureRoundID)
	if err != nil {
		t.Fatalf("Level: %v", err)
	}

	// Master every picture-round word, then trigger with an unrelated
	// level: the completion rule must not fire off-level.
	for _, w := range level.Words {
		upsert(t, st, "u1", w.Text, true, content.PictureRoundID, time.Now())
	}
	rec := upsert(t, st, "u1", "PIZZA", false, "FOOD_1", time.Now())
	if err := ev.OnProgress(ctx, "u1", rec); err != nil {
		t.Fatalf("OnProgress: %v", err)
	}
	if grantIDs(t, st, "u1")[VisualLearner] {
		t.Error("completion granted by an off-level trigger")
	}
}

func TestOnScore(t *testing.T) {
	st := memstore.New()
	ev := NewEvaluator(st)
	ctx := context.Background()

	if err := ev.OnScore(ctx, "u1", 900); err != nil {
		t.Fatalf("OnScore: %v", err)
	}
	ids := grantIDs(t, st, "u1")
	if !ids[Contender] {
		t.Error("first submission did not grant the contender achievement")
	}
	if ids[TimeAttackPro] {
		t.Error("900 granted the 1000-point achievement")
	}

	if err := ev.OnScore(ctx, "u1", 1000); err != nil {
		t.Fatalf("OnScore: %v", err)
	}
	if !grantIDs(t, st, "u1")[TimeAttackPro] {
		t.Error("1000 did not grant the 1000-point achievement")
	}
}

func TestGrant_Idempotent(t *testing.T) {
	st := memstore.New()
	ev := NewEvaluator(st)
	ctx := context.Background()

	rec := upsert(t, st, "u1", "CAT", true, "ANIMALS_1", time.Now())
	for i := 0; i < 3; i++ {
		if err := ev.OnProgress(ctx, "u1", rec); err != nil {
			t.Fatalf("OnProgress run %d: %v", i+1, err)
		}
	}

	grants, err := st.GrantsByLearner(ctx, "u1")
	if err != nil {
		t.Fatalf("GrantsByLearner: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("got %d grant rows after repeated evaluation, want 1", len(grants))
	}
}

func TestGrant_RecordsMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	st := memstore.New()
	ev := NewEvaluator(st, WithMetrics(metrics))
	ctx := context.Background()

	rec := upsert(t, st, "u1", "CAT", true, "ANIMALS_1", time.Now())
	// Evaluate twice: the duplicate grant must not count again.
	for i := 0; i < 2; i++ {
		if err := ev.OnProgress(ctx, "u1", rec); err != nil {
			t.Fatalf("OnProgress run %d: %v", i+1, err)
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var granted int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "vocalis.achievement.grants" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				granted += dp.Value
			}
		}
	}
	if granted != 1 {
		t.Errorf("grant counter = %d, want 1", granted)
	}
}

func TestCatalog(t *testing.T) {
	cat := Catalog()
	want := []string{FirstMastery, WordWizard, HeatingUp, Contender, TimeAttackPro, VisualLearner}
	if len(cat) != len(want) {
		t.Fatalf("catalog has %d entries, want %d", len(cat), len(want))
	}
	for _, id := range want {
		def, ok := cat[id]
		if !ok {
			t.Errorf("missing %s", id)
			continue
		}
		if def.Name == "" || def.Description == "" {
			t.Errorf("%s has empty display fields: %+v", id, def)
		}
	}
}
