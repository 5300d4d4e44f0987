package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/storefront/internal/model"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherWritesKeyedJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w)

	order := &model.Order{
		ID:          "ord-1",
		Items:       []model.OrderLine{{ItemID: "i1", Quantity: 2}},
		FinalAmount: decimal.RequireFromString("299.98"),
	}
	e := NewOrderPlaced(order)
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, e.EventID, string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, OrderPlaced, string(msg.Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, OrderPlaced, got.Type)
	assert.Equal(t, "ord-1", got.OrderID)
	assert.Equal(t, 1, got.Lines)
	assert.True(t, got.FinalAmount.Equal(order.FinalAmount))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newKafkaPublisher(&fakeWriter{err: boom})

	err := p.Publish(context.Background(), NewItemChanged(ItemDeleted, "i1", "Lamp"))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), ItemDeleted)
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	_, err := NewKafkaPublisher(" , ", "storefront")
	assert.Error(t, err)

	_, err = NewKafkaPublisher("localhost:9092", "")
	assert.Error(t, err)

	p, err := NewKafkaPublisher("localhost:9092, localhost:9093", "storefront")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestEventConstructors(t *testing.T) {
	e := NewOfferChanged(OfferCreated, "o1", "Summer")
	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, "o1", e.OfferID)
	assert.Empty(t, e.ItemID)

	a, b := NewItemChanged(ItemCreated, "", "x"), NewItemChanged(ItemCreated, "", "x")
	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), NewItemChanged(ItemCreated, "i", "n")))
	assert.NoError(t, p.Close())
}
