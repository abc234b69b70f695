// Package eventbus carries in-process notifications between domains: task
// completion, account changes, cache sweeps. Handlers must not block; slow
// work belongs in the task runner.
package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

// Topics published by the server.
const (
	TopicTaskFinished = "task:finished"
	TopicUserChanged  = "user:changed"
	TopicCacheSwept   = "cache:swept"
)

var (
	instance evbus.Bus
	once     sync.Once
)

// Get returns the process-wide bus instance.
func Get() evbus.Bus {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates an independent bus, used by tests to avoid shared state.
func New() evbus.Bus {
	return evbus.New()
}

// Publish emits an event on the process-wide bus.
func Publish(topic string, args ...any) {
	Get().Publish(topic, args...)
}

// Subscribe registers a handler on the process-wide bus.
func Subscribe(topic string, fn any) error {
	return Get().Subscribe(topic, fn)
}

// SubscribeAsync registers a handler that runs on its own goroutine.
func SubscribeAsync(topic string, fn any) error {
	return Get().SubscribeAsync(topic, fn, false)
}

// Unsubscribe removes a previously registered handler.
func Unsubscribe(topic string, fn any) error {
	return Get().Unsubscribe(topic, fn)
}
