package audiocapture

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/whisperdoc/dictation-shell/internal/telemetry"
)

// ChunkQueueSize bounds the channel the hardware callback pushes into,
// matching the audio buffer's own cap so a stalled consumer can never grow
// memory without bound. The callback never blocks on a full queue: it
// evicts the oldest queued chunk to make room, the same FIFO policy the
// pre-auth buffer uses.
const ChunkQueueSize = 20000

// Capture manages the hardware input stream and normalizes every captured
// chunk to 16kHz/16-bit/mono PCM before handing it off on Chunks().
type Capture struct {
	deviceID int
	log      telemetry.Logger

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	// deviceRate is set once by StartStream before the device starts
	// delivering callbacks, and read by onSamples without the mutex: the
	// real-time callback must never block on a lock StopStream also holds
	// while it waits for the callback to quiesce.
	deviceRate atomic.Int64

	recording atomic.Bool
	chunks    chan []byte
}

// New builds a Capture bound to the given input device index. A nil logger
// is replaced with a no-op.
func New(deviceID int, log telemetry.Logger) *Capture {
	if log == nil {
		log = &telemetry.NoOpLogger{}
	}
	return &Capture{
		deviceID: deviceID,
		log:      log,
		chunks:   make(chan []byte, ChunkQueueSize),
	}
}

// Chunks returns the channel normalized PCM chunks are delivered on.
func (c *Capture) Chunks() <-chan []byte {
	return c.chunks
}

// StartStream opens the hardware input device. It is idempotent.
func (c *Capture) StartStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		return nil
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	// A requested rate of 0 asks the backend for the device's native rate;
	// we read back whatever it actually negotiated below.
	deviceConfig.SampleRate = 0

	var devices []malgo.DeviceInfo
	devices, err = malgoCtx.Devices(malgo.Capture)
	if err == nil && c.deviceID >= 0 && c.deviceID < len(devices) {
		id := devices[c.deviceID].ID
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: c.onSamples,
	})
	if err != nil {
		malgoCtx.Uninit()
		return err
	}

	rate := int(device.SampleRate())
	if rate == 0 {
		rate = TargetSampleRate
	}

	c.deviceRate.Store(int64(rate))
	if err := device.Start(); err != nil {
		device.Uninit()
		malgoCtx.Uninit()
		return err
	}

	c.malgoCtx = malgoCtx
	c.device = device
	c.log.Success("audio stream active: device %d (%dHz -> %dHz)", c.deviceID, rate, TargetSampleRate)
	return nil
}

// StopStream closes the hardware input device. It is idempotent.
func (c *Capture) StopStream() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return
	}
	c.device.Uninit()
	c.device = nil
	if c.malgoCtx != nil {
		c.malgoCtx.Uninit()
		c.malgoCtx = nil
	}
	c.log.Info("audio stream shutdown")
}

// StartCapture enables propagation of captured audio to Chunks().
func (c *Capture) StartCapture() {
	c.recording.Store(true)
}

// StopCapture disables propagation of captured audio to Chunks().
func (c *Capture) StopCapture() {
	c.recording.Store(false)
}

func (c *Capture) onSamples(_, input []byte, _ uint32) {
	if input == nil || !c.recording.Load() {
		return
	}

	rate := int(c.deviceRate.Load())
	if rate == 0 {
		rate = TargetSampleRate
	}

	chunk := Convert(input, rate)

	select {
	case c.chunks <- chunk:
		return
	default:
	}

	// Queue is full: evict the oldest queued chunk to make room, then retry
	// once. The callback must never block, so a losing race on the retry
	// just drops this chunk instead.
	select {
	case <-c.chunks:
		c.log.Warn("audio chunk queue limit reached, dropping oldest chunk to prevent memory exhaustion")
	default:
	}
	select {
	case c.chunks <- chunk:
	default:
	}
}
