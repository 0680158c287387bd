// Package messaging defines the reminder message contract shared by the
// publisher and consumer, along with the transport-agnostic interfaces the
// rest of the worker programs against. Concrete broker implementations live
// in internal/platform/rabbitmq.
package messaging
