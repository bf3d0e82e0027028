package realtime

import (
	"testing"
)

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
}

func TestBroadcaster_Subscribe(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe returned nil channel")
	}
	if b.Subscribers() != 1 {
		t.Errorf("Subscribers %d, want 1", b.Subscribers())
	}
	b.Unsubscribe(ch)
	if b.Subscribers() != 0 {
		t.Errorf("Subscribers %d, want 0", b.Subscribers())
	}
}

func TestBroadcaster_PublishDeliversToMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Publish("phase")
	if got := <-ch1; got != "phase" {
		t.Errorf("ch1 got %q, want phase", got)
	}
	if got := <-ch2; got != "phase" {
		t.Errorf("ch2 got %q, want phase", got)
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	_, open := <-ch
	if open {
		t.Error("channel should be closed after Unsubscribe")
	}
	b.Unsubscribe(ch)
}

func TestBroadcaster_LaggingSubscriberKeepsNewest(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < subscriberBuffer; i++ {
		b.Publish("old")
	}
	b.Publish("newest")

	var last string
	for i := 0; i < subscriberBuffer; i++ {
		last = <-ch
	}
	if last != "newest" {
		t.Errorf("last event %q, want newest", last)
	}
}
