package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var _ Publisher = (*amqpPublisher)(nil)

// amqpChannel is the part of *amqp.Channel used to publish events.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// amqpSession is one connection to the broker with its publishing channel.
// closed fires or is closed once the broker or the network drops the channel.
type amqpSession struct {
	conn    io.Closer
	channel amqpChannel
	closed  <-chan *amqp.Error
}

func (s *amqpSession) alive() bool {
	select {
	case <-s.closed:
		return false
	default:
		return true
	}
}

func (s *amqpSession) close() error {
	return errors.Join(ignoreClosed(s.channel.Close()), ignoreClosed(s.conn.Close()))
}

func ignoreClosed(err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

// amqpPublisher broadcasts catalog events on a fanout exchange. The queue id
// is used as routing key and message type so consumers can tell them apart.
// A dropped session is replaced by a new one on the next publish.
type amqpPublisher struct {
	mu       sync.Mutex
	exchange string
	dial     func() (*amqpSession, error)
	session  *amqpSession
}

// NewAMQPPublisher dials the broker and declares the durable fanout exchange.
func NewAMQPPublisher(config *AMQPConfig) (*amqpPublisher, error) {
	p := &amqpPublisher{
		exchange: config.Exchange,
		dial: func() (*amqpSession, error) {
			return dialAMQP(config)
		},
	}
	session, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.session = session
	return p, nil
}

func dialAMQP(config *AMQPConfig) (*amqpSession, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", config.Username, config.Password, config.Host, config.Port)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		config.Exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s exchange: %w", config.Exchange, err)
	}

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	return &amqpSession{conn: conn, channel: ch, closed: closed}, nil
}

// current returns the live session, dialing again if the previous one dropped.
func (p *amqpPublisher) current() (*amqpSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil && p.session.alive() {
		return p.session, nil
	}
	if p.session != nil {
		_ = p.session.close()
		p.session = nil
	}
	session, err := p.dial()
	if err != nil {
		return nil, fmt.Errorf("failed to reconnect: %w", err)
	}
	p.session = session
	return session, nil
}

// Push publishes the book as a persistent JSON message.
func (p *amqpPublisher) Push(ctx context.Context, qid string, book Book) error {
	body, err := json.Marshal(book)
	if err != nil {
		return err
	}
	session, err := p.current()
	if err != nil {
		return err
	}
	return session.channel.PublishWithContext(ctx, p.exchange, qid, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         qid,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Close releases the channel and the connection.
func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.close()
	p.session = nil
	return err
}
