package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAMQPChannel records published messages.
type fakeAMQPChannel struct {
	mu        sync.Mutex
	published []amqp.Publishing
	closed    bool
}

func (c *fakeAMQPChannel) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return amqp.ErrClosed
	}
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeAMQPChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return amqp.ErrClosed
	}
	c.closed = true
	return nil
}

type fakeAMQPConn struct{ closed int }

func (c *fakeAMQPConn) Close() error {
	c.closed++
	return nil
}

// fakeSession returns a session with the function which simulates its drop.
func fakeSession() (*amqpSession, *fakeAMQPChannel, func()) {
	ch := &fakeAMQPChannel{}
	notify := make(chan *amqp.Error, 1)
	drop := func() {
		notify <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "broker shutdown"}
		close(notify)
	}
	return &amqpSession{conn: &fakeAMQPConn{}, channel: ch, closed: notify}, ch, drop
}

// TestAMQPPublisher ensures events are published and a dropped session is redialed.
func TestAMQPPublisher(t *testing.T) {
	ctx := context.Background()
	book := Book{ID: 3, Title: "Dune", Author: "Frank Herbert", Image: "/images/dune.jpg", Available: true}

	first, firstCh, drop := fakeSession()
	second, secondCh, _ := fakeSession()
	sessions := []*amqpSession{second}
	var dialErr error
	dials := 0
	p := &amqpPublisher{
		exchange: "catalog",
		session:  first,
		dial: func() (*amqpSession, error) {
			dials++
			if dialErr != nil {
				return nil, dialErr
			}
			s := sessions[0]
			sessions = sessions[1:]
			return s, nil
		},
	}

	require.NoError(t, p.Push(ctx, CreateQueue, book))
	require.Len(t, firstCh.published, 1)
	msg := firstCh.published[0]
	assert.Equal(t, CreateQueue, msg.Type)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	var got Book
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, book, got)
	assert.Zero(t, dials)

	drop()
	dialErr = errors.New("connection refused")
	err := p.Push(ctx, DeleteQueue, Book{ID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, dialErr)
	assert.Equal(t, 1, dials)
	assert.True(t, firstCh.closed)

	dialErr = nil
	require.NoError(t, p.Push(ctx, DeleteQueue, Book{ID: 1}))
	assert.Equal(t, 2, dials)
	require.Len(t, secondCh.published, 1)
	assert.Equal(t, DeleteQueue, secondCh.published[0].Type)
	assert.Len(t, firstCh.published, 1)

	require.NoError(t, p.Close())
	assert.True(t, secondCh.closed)
	require.NoError(t, p.Close())
}
