package bridge

import (
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPSource feeds the bridge from a RabbitMQ queue.
type AMQPSource struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	out  chan []byte
}

// NewAMQPSource connects to RabbitMQ at url and consumes queue.
func NewAMQPSource(url, queue string) (*AMQPSource, error) {
	conn, err := dialWithRetry(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	deliveries, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	s := &AMQPSource{
		conn: conn,
		ch:   ch,
		out:  make(chan []byte, 64),
	}

	go func() {
		defer close(s.out)
		for d := range deliveries {
			s.out <- d.Body
		}
	}()

	return s, nil
}

func dialWithRetry(url string) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 0; i < 5; i++ {
		if conn, err = amqp.Dial(url); err == nil {
			log.Println("Successfully connected to RabbitMQ")
			return conn, nil
		}
		log.Printf("Failed to connect to RabbitMQ. Retrying in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
	return nil, fmt.Errorf("could not connect to RabbitMQ after multiple retries: %w", err)
}

// Messages returns the feed channel.
func (s *AMQPSource) Messages() <-chan []byte {
	return s.out
}

// Close tears the channel and connection down.
func (s *AMQPSource) Close() error {
	s.ch.Close()
	return s.conn.Close()
}
