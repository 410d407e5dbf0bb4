package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lhuanyu/Sumeru/internal/model"
)

// Snapshot is the full event list after a write, newest first. Receivers
// must treat Events as read-only.
type Snapshot struct {
	Version uint64
	Events  []model.CareEvent
}

// Publisher is a Repository that notifies subscribers after every
// successful write. Writes through one Publisher are serialized so
// snapshot versions follow commit order.
type Publisher struct {
	repo Repository
	log  zerolog.Logger

	mu      sync.Mutex
	version uint64
	subs    map[chan Snapshot]struct{}
}

var _ Repository = (*Publisher)(nil)

func NewPublisher(repo Repository, log zerolog.Logger) *Publisher {
	return &Publisher{repo: repo, log: log, subs: make(map[chan Snapshot]struct{})}
}

// Subscribe returns a channel that receives the current snapshot and then
// one per write. A slow receiver only ever sees the latest pending
// snapshot. The channel is closed when ctx is done.
func (p *Publisher) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	p.mu.Lock()
	p.subs[ch] = struct{}{}
	if events, err := p.repo.ListAll(ctx); err != nil {
		p.log.Warn().Err(err).Msg("initial snapshot failed")
	} else {
		ch <- Snapshot{Version: p.version, Events: events}
	}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.subs, ch)
		close(ch)
		p.mu.Unlock()
	}()
	return ch
}

// Version is the number of writes published so far.
func (p *Publisher) Version() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

func (p *Publisher) Insert(ctx context.Context, e *model.CareEvent) error {
	return p.write(ctx, func() error { return p.repo.Insert(ctx, e) })
}

func (p *Publisher) Update(ctx context.Context, e model.CareEvent) error {
	return p.write(ctx, func() error { return p.repo.Update(ctx, e) })
}

func (p *Publisher) Delete(ctx context.Context, id uuid.UUID) error {
	return p.write(ctx, func() error { return p.repo.Delete(ctx, id) })
}

func (p *Publisher) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	return p.write(ctx, func() error { return p.repo.DeleteMany(ctx, ids) })
}

func (p *Publisher) Get(ctx context.Context, id uuid.UUID) (model.CareEvent, error) {
	return p.repo.Get(ctx, id)
}

func (p *Publisher) ListAll(ctx context.Context) ([]model.CareEvent, error) {
	return p.repo.ListAll(ctx)
}

func (p *Publisher) write(ctx context.Context, fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}
	p.version++
	// The write is committed; a failed re-read only costs subscribers this
	// version.
	events, err := p.repo.ListAll(ctx)
	if err != nil {
		p.log.Warn().Err(err).Uint64("version", p.version).Msg("snapshot reload failed")
		return nil
	}
	snap := Snapshot{Version: p.version, Events: events}
	for ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
	p.log.Debug().Uint64("version", snap.Version).Int("events", len(events)).Int("subscribers", len(p.subs)).Msg("snapshot published")
	return nil
}
