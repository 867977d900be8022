package infrastructure

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/segmentio/kafka-go"

	"github.com/draftea/order-system/shared/events"
)

type fakeSNS struct {
	mu      sync.Mutex
	batches []*sns.PublishBatchInput
	output  *sns.PublishBatchOutput
	err     error
}

func (f *fakeSNS) PublishBatch(_ context.Context, params *sns.PublishBatchInput, _ ...func(*sns.Options)) (*sns.PublishBatchOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batches = append(f.batches, params)
	if f.output == nil {
		return &sns.PublishBatchOutput{}, f.err
	}
	return f.output, f.err
}

type fakeSQS struct {
	mu       sync.Mutex
	messages []types.Message
	deleted  []string
	changed  map[string]int32
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	msgs := f.messages
	f.messages = nil
	f.mu.Unlock()

	return &sqs.ReceiveMessageOutput{Messages: msgs}, ctx.Err()
}

func (f *fakeSQS) push(msgs ...types.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, msgs...)
}

func (f *fakeSQS) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, *params.ReceiptHandle)
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) ChangeMessageVisibility(_ context.Context, params *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.changed == nil {
		f.changed = make(map[string]int32)
	}
	f.changed[*params.ReceiptHandle] = params.VisibilityTimeout
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func (f *fakeSQS) snapshot() ([]string, map[string]int32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	changed := make(map[string]int32, len(f.changed))
	for k, v := range f.changed {
		changed[k] = v
	}
	return append([]string(nil), f.deleted...), changed
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	return nil
}

type fakeReader struct {
	incoming  chan kafka.Message
	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{incoming: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.incoming <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.incoming:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int64(nil), r.committed...)
}

// recordingHandler collects handled events and fails the first failures calls
type recordingHandler struct {
	mu       sync.Mutex
	handled  []*events.Event
	failures int
	err      error
}

func (h *recordingHandler) Handle(_ context.Context, event *events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handled = append(h.handled, event)
	if h.failures > 0 {
		h.failures--
		return h.err
	}
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.handled)
}

func (h *recordingHandler) events() []*events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]*events.Event(nil), h.handled...)
}

// recordingPublisher fails the first failures calls
type recordingPublisher struct {
	mu        sync.Mutex
	published []*events.Event
	calls     int
	failures  int
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...*events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.failures > 0 {
		p.failures--
		return p.err
	}
	p.published = append(p.published, evts...)
	return nil
}

func (p *recordingPublisher) snapshot() (int, []*events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.calls, append([]*events.Event(nil), p.published...)
}
