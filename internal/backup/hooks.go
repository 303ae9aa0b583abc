// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package backup

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"

	"github.com/driftback/driftback/internal/logging"
	"github.com/driftback/driftback/internal/plugin"
)

// Lifecycle event topics published by the controller.
const (
	EventBeforeBackup  = "before-backup"
	EventAfterBackup   = "after-backup"
	EventBackupFailure = "backup-failure"
	EventPurgeBackup   = "purge-backup"
)

// Event is the payload delivered to hook plugins.
type Event struct {
	Name   string  `json:"name"`
	Backup *Backup `json:"backup"`
}

// Hook is the contract hook plugins implement. Handle is called once per
// subscribed event. Handler errors surface from Bus.Publish; the controller
// aborts the run for a before-backup failure and logs failures elsewhere.
type Hook interface {
	plugin.Plugin
	// Events lists the topics this hook subscribes to.
	Events() []string
	// Handle reacts to one event.
	Handle(ctx context.Context, ev *Event) error
}

// Bus routes lifecycle events to attached hooks. Publishing is synchronous:
// Publish returns after every subscribed hook has handled the event, so the
// controller can order hooks around engine execution deterministically.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu    sync.Mutex
	hooks map[string][]Hook // topic -> hooks, in attach order
	errs  map[string]error  // message UUID -> first handler error
	wg    sync.WaitGroup
}

// NewBus returns an event bus ready for hook attachment.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			// Publish must not return before hooks have run; the
			// controller sequences hooks around engine execution.
			BlockPublishUntilSubscriberAck: true,
		}, watermill.NopLogger{}),
		hooks: map[string][]Hook{},
		errs:  map[string]error{},
	}
}

// Attach subscribes a hook to each of its declared events.
func (b *Bus) Attach(ctx context.Context, hook Hook) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topic := range hook.Events() {
		if len(b.hooks[topic]) == 0 {
			messages, err := b.pubsub.Subscribe(ctx, topic)
			if err != nil {
				return fmt.Errorf("subscribe %s: %w", topic, err)
			}
			b.wg.Add(1)
			go b.dispatch(ctx, topic, messages)
		}
		b.hooks[topic] = append(b.hooks[topic], hook)
	}
	return nil
}

func (b *Bus) dispatch(ctx context.Context, topic string, messages <-chan *message.Message) {
	defer b.wg.Done()
	for msg := range messages {
		var ev Event
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			logging.Err(err).Str("topic", topic).Msg("dropping malformed hook event")
			msg.Ack()
			continue
		}
		b.mu.Lock()
		hooks := append([]Hook(nil), b.hooks[topic]...)
		b.mu.Unlock()
		for _, hook := range hooks {
			if err := hook.Handle(ctx, &ev); err != nil {
				logging.Err(err).
					Str("topic", topic).
					Str("hook", hook.Name()).
					Msg("hook failed")
				b.mu.Lock()
				if _, seen := b.errs[msg.UUID]; !seen {
					b.errs[msg.UUID] = fmt.Errorf("hook %s: %w", hook.Name(), err)
				}
				b.mu.Unlock()
			}
		}
		msg.Ack()
	}
}

// Publish delivers an event to every hook subscribed to its topic and waits
// for acknowledgement.
func (b *Bus) Publish(topic string, ev *Event) error {
	ev.Name = topic
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	// Publish blocked until every subscriber acked, so any handler error
	// for this message has been recorded by now.
	b.mu.Lock()
	err, failed := b.errs[msg.UUID]
	delete(b.errs, msg.UUID)
	b.mu.Unlock()
	if failed {
		return err
	}
	return nil
}

// Close shuts the bus down and waits for in-flight dispatchers.
func (b *Bus) Close() error {
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}

// LoadHook instantiates a named hook plugin.
func LoadHook(name string) (Hook, error) {
	p, err := plugin.Load(plugin.NamespaceHook, name)
	if err != nil {
		return nil, err
	}
	hook, ok := p.(Hook)
	if !ok {
		return nil, fmt.Errorf("plugin %q is not a hook", name)
	}
	return hook, nil
}

func init() {
	plugin.Register(plugin.NamespaceHook, "log", func() plugin.Plugin { return logHook{} })
}

// logHook reports every lifecycle event through the structured logger.
type logHook struct{}

func (logHook) Name() string    { return "log" }
func (logHook) Summary() string { return "logs backup lifecycle events" }

func (logHook) Events() []string {
	return []string{EventBeforeBackup, EventAfterBackup, EventBackupFailure, EventPurgeBackup}
}

func (logHook) Handle(_ context.Context, ev *Event) error {
	entry := logging.Info().Str("event", ev.Name)
	if ev.Backup != nil {
		entry = entry.
			Str("backupset", ev.Backup.Backupset).
			Str("backup_id", ev.Backup.ID).
			Str("status", string(ev.Backup.Status))
	}
	entry.Msg("backup lifecycle event")
	return nil
}
