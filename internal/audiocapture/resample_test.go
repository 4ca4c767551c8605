package audiocapture

import (
	"encoding/binary"
	"testing"
)

func makeS16LE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestConvertNoOpAtTargetRate(t *testing.T) {
	raw := makeS16LE([]int16{100, 200, 300})
	got := Convert(raw, TargetSampleRate)
	if len(got) != len(raw) {
		t.Fatalf("Expected passthrough length %d, got %d", len(raw), len(got))
	}
	for i := range raw {
		if got[i] != raw[i] {
			t.Errorf("Expected passthrough bytes identical at %d", i)
		}
	}
}

func TestConvertDownsamplesLength(t *testing.T) {
	samples := make([]int16, 48000) // one second at 48kHz
	for i := range samples {
		samples[i] = int16(i % 100)
	}
	raw := makeS16LE(samples)

	got := Convert(raw, 48000)
	gotSamples := len(got) / 2
	// One second at 48kHz should become ~one second at 16kHz.
	if gotSamples < 15900 || gotSamples > 16100 {
		t.Errorf("Expected ~16000 output samples, got %d", gotSamples)
	}
}

func TestEncodeS16LESaturatesOverflow(t *testing.T) {
	out := encodeS16LE([]float64{2.0, -2.0, 0.0})
	if int16(binary.LittleEndian.Uint16(out[0:2])) != 32767 {
		t.Errorf("Expected positive overflow saturated to 32767")
	}
	if int16(binary.LittleEndian.Uint16(out[2:4])) != -32768 {
		t.Errorf("Expected negative overflow saturated to -32768")
	}
	if int16(binary.LittleEndian.Uint16(out[4:6])) != 0 {
		t.Errorf("Expected zero sample to round-trip as 0")
	}
}

func TestResampleLinearIdentityWhenRatesMatch(t *testing.T) {
	in := []float64{0.1, 0.2, 0.3}
	out := resampleLinear(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("Expected identity passthrough, got len %d", len(out))
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768}
	raw := makeS16LE(samples)
	decoded := decodeS16LE(raw)
	encoded := encodeS16LE(decoded)
	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(encoded[i*2:]))
		diff := int(got) - int(want)
		if diff < -1 || diff > 1 {
			t.Errorf("Expected round-trip sample near %d, got %d", want, got)
		}
	}
}
