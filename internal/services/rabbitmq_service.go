package services

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DispatchQueueName is the durable queue campaign dispatch jobs go through
const DispatchQueueName = "email_dispatch"

// DispatchJob is the payload published per campaign send
type DispatchJob struct {
	CampaignID string `json:"campaign_id"`
}

type RabbitMQService struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitMQService() (*RabbitMQService, error) {
	host := getEnv("RABBITMQ_HOST", "localhost")
	port := getEnv("RABBITMQ_PORT", "5672")
	user := getEnv("RABBITMQ_USER", "guest")
	pass := getEnv("RABBITMQ_PASS", "guest")

	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		DispatchQueueName, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	logrus.Info("RabbitMQ service initialized successfully")
	return &RabbitMQService{conn: conn, channel: channel}, nil
}

// PublishDispatchJob enqueues a campaign for background dispatch
func (s *RabbitMQService) PublishDispatchJob(job DispatchJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch job: %w", err)
	}

	err = s.channel.Publish(
		"",                // exchange
		DispatchQueueName, // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish dispatch job: %w", err)
	}

	logrus.WithField("campaign_id", job.CampaignID).Info("Dispatch job published")
	return nil
}

// StartDispatchConsumer consumes dispatch jobs and runs them through the
// dispatcher. Blocking network work happens here, never on a request
// goroutine.
func (s *RabbitMQService) StartDispatchConsumer(dispatcher *CampaignDispatchService) error {
	deliveries, err := s.channel.Consume(
		DispatchQueueName, // queue
		"",                // consumer
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("failed to start dispatch consumer: %w", err)
	}

	go func() {
		for delivery := range deliveries {
			var job DispatchJob
			if err := json.Unmarshal(delivery.Body, &job); err != nil {
				logrus.Warnf("Dropping malformed dispatch job: %v", err)
				delivery.Nack(false, false)
				continue
			}

			if err := dispatcher.Dispatch(context.Background(), job.CampaignID); err != nil {
				logrus.WithField("campaign_id", job.CampaignID).
					Errorf("Campaign dispatch failed: %v", err)
			}
			// At-least-once: the job is acked after the dispatch loop has run
			// to completion. A crash mid-loop leaves the campaign in sending
			// for an operator to reconcile.
			delivery.Ack(false)
		}
	}()

	logrus.Info("Dispatch consumer started")
	return nil
}

// Close closes the RabbitMQ connection
func (s *RabbitMQService) Close() error {
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			logrus.Warnf("Error closing channel: %v", err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			logrus.Warnf("Error closing connection: %v", err)
		}
	}
	return nil
}
