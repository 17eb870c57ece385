// Package feed adapts a watermill subscriber into the ordered per-entry event
// feed the reducer consumes. The transport is ordered per topic but carries no
// global ordering; the coordinator fills in sequence numbers for frames that
// arrived without one so downstream correlation always has a usable key.
package feed

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/dbchat/pkg/events"
)

// Topic computes the event topic for one conversation entry.
func Topic(entryID string) string { return "entry:" + entryID }

// Coordinator owns the subscriber that feeds one entry's events and dispatches
// decoded events in arrival order to a single callback.
type Coordinator struct {
	entryID    string
	subscriber message.Subscriber
	onEvent    func(events.Event)

	seq atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

func NewCoordinator(entryID string, subscriber message.Subscriber, onEvent func(events.Event)) *Coordinator {
	return &Coordinator{
		entryID:    entryID,
		subscriber: subscriber,
		onEvent:    onEvent,
	}
}

func (c *Coordinator) Start(ctx context.Context) error {
	if c == nil || c.subscriber == nil {
		return nil
	}
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	ch, err := c.subscriber.Subscribe(runCtx, Topic(c.entryID))
	if err != nil {
		log.Error().Err(err).Str("component", "feed").Str("entry_id", c.entryID).Msg("coordinator: subscribe failed")
		c.Stop()
		return err
	}
	go c.consume(ch)
	return nil
}

func (c *Coordinator) Stop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = nil
	c.running = false
	c.mu.Unlock()
}

func (c *Coordinator) Close() {
	if c == nil {
		return
	}
	c.Stop()
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			log.Warn().Err(err).Str("component", "feed").Str("entry_id", c.entryID).Msg("coordinator: subscriber close failed")
		}
	}
}

func (c *Coordinator) IsRunning() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Coordinator) consume(ch <-chan *message.Message) {
	log.Debug().Str("component", "feed").Str("entry_id", c.entryID).Msg("coordinator: started")
	for msg := range ch {
		ev, err := events.NewEventFromJSON(msg.Payload)
		if err != nil {
			log.Warn().Err(err).Str("component", "feed").Str("entry_id", c.entryID).Msg("coordinator: failed to decode event")
			msg.Ack()
			continue
		}
		ev = c.withSequence(ev)
		if c.onEvent != nil {
			c.onEvent(ev)
		}
		msg.Ack()
	}
	log.Debug().Str("component", "feed").Str("entry_id", c.entryID).Msg("coordinator: stopped")
	c.mu.Lock()
	c.running = false
	c.cancel = nil
	c.mu.Unlock()
}

// syntheticSeqBase offsets coordinator-assigned sequence numbers into a range
// no producer-assigned number can reach, so a stamped frame arriving after an
// unstamped one can never collide with a synthetic number and get dropped as
// a duplicate downstream.
const syntheticSeqBase = uint64(1) << 62

// withSequence stamps frames that arrived without a sequence number. Synthetic
// numbers preserve arrival order among themselves and sort after every
// producer-assigned number.
func (c *Coordinator) withSequence(ev events.Event) events.Event {
	if ev.Metadata().SequenceNumber != 0 {
		return ev
	}
	return withSequenceNumber(ev, syntheticSeqBase+c.seq.Add(1))
}

func withSequenceNumber(ev events.Event, seq uint64) events.Event {
	switch e := ev.(type) {
	case *events.EventToolStart:
		clone := *e
		clone.SequenceNumber = seq
		return &clone
	case *events.EventToolEnd:
		clone := *e
		clone.SequenceNumber = seq
		return &clone
	case *events.EventToken:
		clone := *e
		clone.SequenceNumber = seq
		return &clone
	case *events.EventMissionStage:
		clone := *e
		clone.SequenceNumber = seq
		return &clone
	case *events.EventMissionComplete:
		clone := *e
		clone.SequenceNumber = seq
		return &clone
	case *events.EventMissionError:
		clone := *e
		clone.SequenceNumber = seq
		return &clone
	default:
		return ev
	}
}

// PublishEvents encodes and publishes events to an entry's topic in order.
func PublishEvents(publisher message.Publisher, entryID string, evs []events.Event) error {
	for _, ev := range evs {
		b, err := events.MarshalEvent(ev)
		if err != nil {
			return err
		}
		msg := message.NewMessage(watermill.NewUUID(), b)
		if err := publisher.Publish(Topic(entryID), msg); err != nil {
			return err
		}
	}
	return nil
}
