// Package amqp forwards engine events to a RabbitMQ topic exchange so that
// other services can react to difficulty adjustments and question requests.
// The event type is used as the routing key.
package amqp
