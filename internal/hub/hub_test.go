package hub

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mlrig/hwmon/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func snapshotAt(sec int) domain.Snapshot {
	return domain.Snapshot{Timestamp: time.Unix(int64(sec), 0)}
}

func TestPublishReachesAllConsumers(t *testing.T) {
	t.Parallel()

	h := New(4, 8, testLogger())
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish(snapshotAt(1))

	for _, sub := range []*Subscription{a, b} {
		select {
		case snap := <-sub.C:
			if snap.Timestamp.Unix() != 1 {
				t.Errorf("consumer %s got timestamp %d, want 1", sub.ID, snap.Timestamp.Unix())
			}
		default:
			t.Errorf("consumer %s received nothing", sub.ID)
		}
	}
}

func TestPublishDropsOldestOnOverflow(t *testing.T) {
	t.Parallel()

	h := New(2, 8, testLogger())
	sub := h.Subscribe()

	for i := 1; i <= 5; i++ {
		h.Publish(snapshotAt(i))
	}

	// Buffer of 2: snapshots 4 and 5 remain, older ones were evicted.
	first := <-sub.C
	second := <-sub.C
	if first.Timestamp.Unix() != 4 || second.Timestamp.Unix() != 5 {
		t.Errorf("buffered = %d, %d, want 4, 5", first.Timestamp.Unix(), second.Timestamp.Unix())
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	t.Parallel()

	const maxMissed = 3
	h := New(1, maxMissed, testLogger())
	slow := h.Subscribe()
	healthy := h.Subscribe()

	// Fill the slow consumer's buffer, then keep publishing without
	// draining it. The healthy consumer drains every time.
	total := 1 + maxMissed
	for i := 1; i <= total; i++ {
		h.Publish(snapshotAt(i))
		<-healthy.C
	}

	if h.Consumers() != 1 {
		t.Fatalf("consumers = %d, want 1 after slow drop", h.Consumers())
	}

	// The dropped consumer's channel must be closed after draining.
	for {
		if _, ok := <-slow.C; !ok {
			break
		}
	}

	// The healthy consumer still receives.
	h.Publish(snapshotAt(99))
	select {
	case snap := <-healthy.C:
		if snap.Timestamp.Unix() != 99 {
			t.Errorf("timestamp = %d, want 99", snap.Timestamp.Unix())
		}
	default:
		t.Error("healthy consumer stopped receiving")
	}
}

func TestDeliveryResetsMissedCount(t *testing.T) {
	t.Parallel()

	const maxMissed = 2
	h := New(1, maxMissed, testLogger())
	sub := h.Subscribe()

	// Alternate between falling behind and catching up; the consumer
	// must never accumulate maxMissed consecutive misses.
	for i := 0; i < 10; i++ {
		h.Publish(snapshotAt(i))
		h.Publish(snapshotAt(i))
		<-sub.C
		for {
			select {
			case <-sub.C:
				continue
			default:
			}
			break
		}
	}

	if h.Consumers() != 1 {
		t.Errorf("consumers = %d, want 1", h.Consumers())
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	h := New(4, 8, testLogger())
	sub := h.Subscribe()

	h.Unsubscribe(sub)
	h.Unsubscribe(sub)

	if h.Consumers() != 0 {
		t.Errorf("consumers = %d, want 0", h.Consumers())
	}
	if _, ok := <-sub.C; ok {
		t.Error("channel still open after unsubscribe")
	}
}

func TestCloseDropsAllConsumers(t *testing.T) {
	t.Parallel()

	h := New(4, 8, testLogger())
	a := h.Subscribe()
	b := h.Subscribe()

	h.Close()

	if h.Consumers() != 0 {
		t.Fatalf("consumers = %d, want 0", h.Consumers())
	}
	if _, ok := <-a.C; ok {
		t.Error("subscription a still open")
	}
	if _, ok := <-b.C; ok {
		t.Error("subscription b still open")
	}
}
