// Package audiobuffer holds PCM chunks captured before the handshake
// completes so no audio is lost while authentication is in flight.
package audiobuffer

import (
	"sync"

	"github.com/whisperdoc/dictation-shell/internal/telemetry"
)

// MaxChunks bounds memory use: at 16kHz/16-bit mono with 512-frame (32ms)
// chunks, 20000 chunks is roughly ten minutes of audio.
const MaxChunks = 20000

// Buffer queues audio chunks while buffering is active and drains them, in
// order, once the caller flushes. It is safe for concurrent use.
type Buffer struct {
	mu        sync.Mutex
	chunks    [][]byte
	buffering bool
	log       telemetry.Logger
}

// New builds a Buffer that starts in the buffering state. A nil logger is
// replaced with a no-op.
func New(log telemetry.Logger) *Buffer {
	if log == nil {
		log = &telemetry.NoOpLogger{}
	}
	return &Buffer{
		buffering: true,
		log:       log,
	}
}

// Add appends a chunk while buffering is active, evicting the oldest chunk
// first if the buffer is at capacity. It is a no-op once buffering has been
// switched off by Flush.
func (b *Buffer) Add(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.buffering {
		return
	}
	if len(b.chunks) >= MaxChunks {
		b.chunks = b.chunks[1:]
		b.log.Warn("audio buffer limit reached, dropping oldest chunk to prevent memory exhaustion")
	}
	b.chunks = append(b.chunks, chunk)
}

// Flush switches buffering off, then streams every queued chunk through
// send in order. Buffering is switched off before the sends begin so any
// concurrent Add calls fail closed rather than racing with the drain.
func (b *Buffer) Flush(send func([]byte) error) error {
	b.mu.Lock()
	toFlush := b.chunks
	b.chunks = nil
	b.buffering = false
	b.mu.Unlock()

	if len(toFlush) == 0 {
		return nil
	}

	b.log.Info("flushing %d buffered audio chunks", len(toFlush))
	for _, chunk := range toFlush {
		if err := send(chunk); err != nil {
			return err
		}
	}
	b.log.Debug("audio buffer flush complete")
	return nil
}

// Clear discards any queued chunks and re-enables buffering.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = nil
	b.buffering = true
}

// IsEmpty reports whether the buffer currently holds no chunks.
func (b *Buffer) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks) == 0
}

// Count returns the number of chunks currently queued.
func (b *Buffer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// IsBuffering reports whether Add currently accepts chunks.
func (b *Buffer) IsBuffering() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffering
}
