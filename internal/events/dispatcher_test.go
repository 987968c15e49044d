package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherPublishesToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []string
	d.Subscribe(EventTicketEscalated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.TicketID)
		return errors.New("mail relay down")
	})
	d.Subscribe(EventTicketEscalated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketSubmitted, func(context.Context, Event) error {
		got = append(got, "unrelated")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketEscalated, TicketID: "TKT-1"})
	assert.ErrorContains(t, err, "mail relay down")
	assert.Equal(t, []string{"first:TKT-1", "second:TKT-1"}, got)
}

func TestDispatcherWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventFollowUpAdded}))
}

func TestDispatcherRecoversPanicsAndStampsTime(t *testing.T) {
	d := NewInMemoryDispatcher()
	var stamped bool
	d.Subscribe(EventTicketResponded, func(context.Context, Event) error {
		panic("template missing")
	})
	d.Subscribe(EventTicketResponded, func(_ context.Context, e Event) error {
		stamped = !e.Timestamp.IsZero()
		return nil
	})
	d.Subscribe(EventTicketResponded, nil)

	err := d.Publish(context.Background(), Event{Type: EventTicketResponded, TicketID: "TKT-2"})
	assert.ErrorContains(t, err, "ticket_responded subscriber 0 for ticket TKT-2: panic: template missing")
	assert.True(t, stamped)
}
