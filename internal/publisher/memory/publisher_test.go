package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/visitmakkah/visitmakkah/internal/publisher"
)

var _ publisher.Publisher = (*Publisher)(nil)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), publisher.EventVisitorSeen, publisher.Event{VisitorID: "v1"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id1)
	id2, err := pub.Publish(context.Background(), publisher.EventWidgetSaved, "payload")
	require.NoError(t, err)
	require.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, []string{publisher.EventVisitorSeen, publisher.EventWidgetSaved}, pub.Topics())

	msgs[0].Topic = "modified"
	require.NotEqual(t, "modified", pub.Messages()[0].Topic, "Messages() returns a copy")
}

func TestBoundedPublisherDropsOldest(t *testing.T) {
	t.Parallel()

	pub := NewBounded(2)
	for _, topic := range []string{"a", "b", "c"} {
		_, err := pub.Publish(context.Background(), topic, nil)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"b", "c"}, pub.Topics())
}
