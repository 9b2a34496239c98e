package migration_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"bibleref/internal/notifications"
	"bibleref/internal/queue"
	"bibleref/internal/rewrite"
	"bibleref/internal/vault"
)

var errDisk = errors.New("disk full")

type memState struct {
	mu        sync.Mutex
	saved     *queue.Queue
	history   []*queue.Queue
	failAfter int // fail every Save after this many successes; <0 never fails
}

func newMemState() *memState {
	return &memState{failAfter: -1}
}

func (s *memState) Load(context.Context) (*queue.Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved.Clone(), nil
}

func (s *memState) Save(_ context.Context, q *queue.Queue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && len(s.history) >= s.failAfter {
		return errDisk
	}
	s.saved = q.Clone()
	s.history = append(s.history, q.Clone())
	return nil
}

func (s *memState) last() *queue.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved.Clone()
}

func (s *memState) snapshots() []*queue.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*queue.Queue(nil), s.history...)
}

type memDocs struct {
	mu     sync.Mutex
	blocks map[string]rewrite.MapBlock
	fail   map[string]bool
	sets   []string
	// onUpdate runs at the start of every Update.
	onUpdate func()
}

func newMemDocs() *memDocs {
	return &memDocs{blocks: map[string]rewrite.MapBlock{}, fail: map[string]bool{}}
}

func (d *memDocs) add(name string, refs ...string) {
	list := make([]any, 0, len(refs))
	for _, ref := range refs {
		list = append(list, ref)
	}
	d.blocks[name] = rewrite.MapBlock{"bible-refs": list}
}

func (d *memDocs) List(context.Context) ([]vault.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.blocks))
	for name := range d.blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	docs := make([]vault.Document, 0, len(names))
	for _, name := range names {
		docs = append(docs, vault.Document{Path: "/vault/" + name, RelPath: name})
	}
	return docs, nil
}

func (d *memDocs) Update(_ context.Context, doc vault.Document, mutate func(rewrite.Block)) error {
	if d.onUpdate != nil {
		d.onUpdate()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[doc.RelPath] {
		return fmt.Errorf("read %s: %w", doc.RelPath, errDisk)
	}
	block, ok := d.blocks[doc.RelPath]
	if !ok {
		block = rewrite.MapBlock{}
	}
	mutate(recordingBlock{MapBlock: block, docs: d})
	return nil
}

func (d *memDocs) Inspect(_ context.Context, doc vault.Document) (rewrite.MapBlock, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[doc.RelPath] {
		return nil, errDisk
	}
	return d.blocks[doc.RelPath].Clone(), nil
}

func (d *memDocs) refs(name string) []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	list, _ := d.blocks[name]["bible-refs"].([]any)
	return append([]any(nil), list...)
}

func (d *memDocs) setLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sets...)
}

// recordingBlock logs every write; the caller holds docs.mu.
type recordingBlock struct {
	rewrite.MapBlock
	docs *memDocs
}

func (b recordingBlock) Set(key string, value any) {
	b.MapBlock.Set(key, value)
	if list, ok := value.([]any); ok {
		for _, item := range list {
			b.docs.sets = append(b.docs.sets, fmt.Sprint(item))
		}
	}
}

type published struct {
	event   notifications.Event
	payload notifications.Payload
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{event: event, payload: payload})
	return n.err
}

func (n *recordingNotifier) byEvent(event notifications.Event) []notifications.Payload {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notifications.Payload
	for _, e := range n.events {
		if e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}
