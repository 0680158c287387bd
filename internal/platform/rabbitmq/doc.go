// Package rabbitmq provides RabbitMQ-specific implementations of the
// messaging interfaces defined in the internal/messaging package. A single
// Client owns the connection and channel; the publisher and consumer receive
// it at construction so the connection's lifetime is explicit rather than
// ambient.
package rabbitmq
