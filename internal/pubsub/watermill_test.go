package pubsub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatermillBridge_RoundTrip(t *testing.T) {
	bridge := NewWatermillBridge(testLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, "test.topic", func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:     "test.topic",
		SessionID: "s-1",
		Payload:   []byte(`{"hello":"world"}`),
		Metadata:  map[string]string{"request_id": "req-123"},
	}))

	select {
	case msg := <-received:
		assert.Equal(t, "test.topic", msg.Topic)
		assert.Equal(t, "s-1", msg.SessionID)
		assert.JSONEq(t, `{"hello":"world"}`, string(msg.Payload))
		assert.Equal(t, "req-123", msg.Metadata["request_id"])
		assert.NotContains(t, msg.Metadata, metaKeySessionID)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}

	require.NoError(t, bridge.Close())
}

func TestWatermillBridge_HandlerErrorDoesNotStopLoop(t *testing.T) {
	bridge := NewWatermillBridge(testLogger(), nil)
	defer bridge.Close()
	ctx := context.Background()

	calls := make(chan struct{}, 2)
	require.NoError(t, bridge.Subscribe(ctx, "flaky", func(context.Context, Message) error {
		calls <- struct{}{}
		return errors.New("boom")
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "flaky"}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "flaky"}))

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatalf("message %d was not delivered", i+1)
		}
	}
}

type greeting struct {
	Text string `json:"text"`
}

func TestTypedEvents(t *testing.T) {
	bridge := NewWatermillBridge(testLogger(), nil)
	defer bridge.Close()
	ctx := context.Background()
	event := NewEvent[greeting]("test.greeting")

	got := make(chan string, 1)
	require.NoError(t, Subscribe(ctx, bridge, event, func(_ context.Context, sessionID string, g greeting) error {
		got <- sessionID + ":" + g.Text
		return nil
	}))
	require.NoError(t, Publish(ctx, bridge, event, "s-9", greeting{Text: "olá"}))

	select {
	case v := <-got:
		assert.Equal(t, "s-9:olá", v)
	case <-time.After(time.Second):
		t.Fatal("typed event was not delivered")
	}
}

func TestWatermillBridge_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	bridge := NewWatermillBridge(testLogger(), tp.Tracer("test"))
	ctx := context.Background()

	done := make(chan struct{})
	require.NoError(t, bridge.Subscribe(ctx, "traced", func(context.Context, Message) error {
		close(done)
		return nil
	}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "traced", SessionID: "s-1"}))
	<-done
	require.NoError(t, bridge.Close())

	names := make([]string, 0)
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "pubsub.publish.traced")
	assert.Contains(t, names, "pubsub.process.traced")
}

func TestSetupTracing_Disabled(t *testing.T) {
	tracer, shutdown, err := SetupTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	assert.NotNil(t, tracer)
	assert.NoError(t, shutdown(context.Background()))
}
