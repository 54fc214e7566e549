package amqp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/events"
	amqp091 "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	messages   []published
	publishErr error
	closeErr   error
	closeCalls int
}

func (f *fakeChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	mandatory, immediate bool,
	msg amqp091.Publishing,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	f.messages = append(f.messages, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closeCalls++
	return f.closeErr
}

func newTestEvent(t *testing.T) *events.Event {
	t.Helper()

	ev, err := events.NewEvent(events.TypeQuestionGenerationRequested, events.QuestionGenerationPayload{
		LearnerID:    uuid.New(),
		Subject:      "math",
		Topic:        "fractions",
		Grade:        5,
		Difficulty:   6,
		BloomLevel:   3,
		MasteryLevel: domain.MasteryIntermediate,
	})
	require.NoError(t, err)
	return ev
}

func TestPublisher_HandleEvent(t *testing.T) {
	t.Parallel()

	t.Run("publishes persistent json routed by type", func(t *testing.T) {
		t.Parallel()

		ch := &fakeChannel{}
		p := newPublisher(ch, "mastery.events", nil)
		ev := newTestEvent(t)

		require.NoError(t, p.HandleEvent(context.Background(), ev))
		require.Len(t, ch.messages, 1)

		got := ch.messages[0]
		assert.Equal(t, "mastery.events", got.exchange)
		assert.Equal(t, events.TypeQuestionGenerationRequested, got.key)
		assert.Equal(t, "application/json", got.msg.ContentType)
		assert.Equal(t, amqp091.Persistent, got.msg.DeliveryMode)
		assert.Equal(t, ev.ID.String(), got.msg.MessageId)
		assert.Equal(t, ev.CreatedAt, got.msg.Timestamp)
		assert.Contains(t, string(got.msg.Body), `"bloom_level":3`)
	})

	t.Run("wraps broker errors", func(t *testing.T) {
		t.Parallel()

		brokerErr := errors.New("channel/connection is not open")
		p := newPublisher(&fakeChannel{publishErr: brokerErr}, "mastery.events", nil)

		err := p.HandleEvent(context.Background(), newTestEvent(t))
		assert.ErrorIs(t, err, brokerErr)
	})

	t.Run("rejects publishing after close", func(t *testing.T) {
		t.Parallel()

		ch := &fakeChannel{}
		p := newPublisher(ch, "mastery.events", nil)
		require.NoError(t, p.Close())
		require.NoError(t, p.Close())

		assert.Equal(t, 1, ch.closeCalls)
		assert.ErrorIs(t, p.HandleEvent(context.Background(), newTestEvent(t)), ErrPublisherClosed)
	})
}

func TestPublisher_CloseReportsChannelError(t *testing.T) {
	t.Parallel()

	closeErr := errors.New("already closed")
	p := newPublisher(&fakeChannel{closeErr: closeErr}, "mastery.events", nil)
	assert.ErrorIs(t, p.Close(), closeErr)
}

func TestPublisher_ForwardsFromEmitter(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(newPublisher(ch, "mastery.events", nil))

	ev, err := events.NewEvent(events.TypeDifficultyAdjusted, events.DifficultyAdjustedPayload{
		Direction: domain.DirectionIncrease,
	})
	require.NoError(t, err)
	require.NoError(t, emitter.EmitEvent(context.Background(), ev))

	require.Len(t, ch.messages, 1)
	assert.Equal(t, events.TypeDifficultyAdjusted, ch.messages[0].key)
}
