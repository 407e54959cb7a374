package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
)

func TestNewMessageCarriesEventTypeAndPayload(t *testing.T) {
	t.Parallel()

	msg, err := newMessage(context.Background(), "visitor.seen", map[string]string{"visitor_id": "v1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"visitor_id":"v1"}`, string(msg.Data))
	require.Equal(t, "visitor.seen", msg.Attributes[EventTypeAttribute])
}

func TestNewMessageRejectsUnencodablePayload(t *testing.T) {
	t.Parallel()

	_, err := newMessage(context.Background(), "x", make(chan int))
	require.Error(t, err)
}

func TestPublishWithoutClient(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Publish(context.Background(), "visitor.seen", struct{}{})
	require.Error(t, err)
}

func TestCarrierRoundTrip(t *testing.T) {
	t.Parallel()

	c := &pubsubCarrier{attrs: map[string]string{}}
	var prop propagation.TextMapPropagator = propagation.TraceContext{}
	prop.Inject(context.Background(), c)
	c.Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	require.Equal(t, "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01", c.Get("traceparent"))
	require.ElementsMatch(t, []string{"traceparent"}, c.Keys())
}
