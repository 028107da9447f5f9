package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

type EventHandler func(event Event) error

type Consumer struct {
	client      *RabbitMQClient
	queueName   string
	serviceName string
}

func NewConsumer(client *RabbitMQClient, queueName, serviceName string) *Consumer {
	return &Consumer{
		client:      client,
		queueName:   queueName,
		serviceName: serviceName,
	}
}

func (c *Consumer) ConsumeEvents(routingKeys []string, handler EventHandler) error {
	if !c.client.IsConnected() {
		return fmt.Errorf("there is no connection to RabbitMQ")
	}

	channel := c.client.Channel()

	queue, err := channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("queue declare error: %w", err)
	}

	for _, routingKey := range routingKeys {
		err = channel.QueueBind(
			queue.Name,          // queue name
			routingKey,          // routing key
			c.client.Exchange(), // exchange
			false,               // no-wait
			nil,                 // arguments
		)
		if err != nil {
			return fmt.Errorf("queue bind error (%s): %w", routingKey, err)
		}
		zap.S().Infof("Queue %s bound to routing key: %s", queue.Name, routingKey)
	}

	messages, err := channel.Consume(
		queue.Name,    // queue
		c.serviceName, // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("consume start error: %w", err)
	}

	zap.S().Infof("Consuming events on queue: %s", queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					zap.S().Infof("Delivery channel closed: %s", c.serviceName)
					return
				}
				c.handleMessage(msg, handler)
			case <-c.client.ctx.Done():
				zap.S().Infof("Consumer is stopped: %s", c.serviceName)
				return
			}
		}
	}()

	return nil
}

func (c *Consumer) handleMessage(msg amqp.Delivery, handler EventHandler) {
	event, err := DecodeEvent(msg.Body)
	if err != nil {
		zap.S().Errorf("Event deserialize error: %v", err)
		msg.Nack(false, false)
		return
	}

	if err := handler(event); err != nil {
		// requeue once; a second failure goes to the dead letter exchange
		zap.S().Errorf("Event process error: %s: %v", event.EventType, err)
		msg.Nack(false, !msg.Redelivered)
		return
	}

	msg.Ack(false)
	zap.S().Debugf("Event processed successfully: %s", event.EventType)
}

func DecodeEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}
