package broadcast

import (
	"context"
	"testing"

	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
)

func TestLocalBus_FanoutIncludesSender(t *testing.T) {
	bus := NewLocalBus(zap.NewNop())

	var first, second []string
	bus.Subscribe(func(msg domain.Message) { first = append(first, msg.Action) })
	bus.Subscribe(func(msg domain.Message) { second = append(second, msg.Action) })

	if err := bus.Broadcast(context.Background(), domain.Message{Action: domain.ActionNewWallpaper}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	// Delivery is synchronous and reaches every subscriber, sender's
	// context included
	for i, got := range [][]string{first, second} {
		if len(got) != 1 || got[0] != domain.ActionNewWallpaper {
			t.Errorf("subscriber %d received %v", i, got)
		}
	}
}

func TestLocalBus_NoSubscribers(t *testing.T) {
	bus := NewLocalBus(zap.NewNop())
	if err := bus.Broadcast(context.Background(), domain.Message{Action: "anything"}); err != nil {
		t.Fatalf("broadcast without subscribers failed: %v", err)
	}
}

func TestLocalBus_LateSubscriberMissesEarlierBroadcasts(t *testing.T) {
	ctx := context.Background()
	bus := NewLocalBus(zap.NewNop())

	if err := bus.Broadcast(ctx, domain.Message{Action: "early"}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	var got []string
	bus.Subscribe(func(msg domain.Message) { got = append(got, msg.Action) })

	if err := bus.Broadcast(ctx, domain.Message{Action: "late"}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	if len(got) != 1 || got[0] != "late" {
		t.Errorf("expected only the broadcast after subscription, got %v", got)
	}
}
