package logstream_test

import (
	"testing"
	"time"

	"github.com/sophialabs/mimicrab/internal/domain/logstream"
)

func TestBroadcaster_PublishDeliversToSubscriber(t *testing.T) {
	b := logstream.NewBroadcaster()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	entry := logstream.Entry{Method: "GET", Path: "/a", Matched: true}
	b.Publish(entry)

	select {
	case got := <-ch:
		if got.Path != "/a" {
			t.Errorf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for entry")
	}
}

func TestBroadcaster_UnsubscribeStopsDelivery(t *testing.T) {
	b := logstream.NewBroadcaster()
	ch, unsubscribe := b.Subscribe()
	unsubscribe()

	b.Publish(logstream.Entry{Path: "/x"})

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestBroadcaster_FullSubscriberDoesNotBlock(t *testing.T) {
	b := logstream.NewBroadcaster()
	_, unsubscribe := b.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			b.Publish(logstream.Entry{Path: "/flood"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
}

func TestBroadcaster_Subscribers(t *testing.T) {
	b := logstream.NewBroadcaster()
	if b.Subscribers() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Subscribers())
	}
	_, unsubscribe := b.Subscribe()
	if b.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.Subscribers())
	}
	unsubscribe()
	if b.Subscribers() != 0 {
		t.Fatalf("expected 0 subscribers after unsubscribe, got %d", b.Subscribers())
	}
}
