// Package audiocapture captures microphone audio and emits fixed-format
// 16kHz/16-bit/mono PCM chunks regardless of the input device's native rate.
package audiocapture

import "encoding/binary"

// TargetSampleRate is the fixed output rate every chunk is normalized to.
const TargetSampleRate = 16000

// decodeS16LE unpacks little-endian int16 PCM bytes into samples normalized
// to [-1, 1].
func decodeS16LE(raw []byte) []float64 {
	n := len(raw) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		out[i] = float64(sample) / 32768.0
	}
	return out
}

// resampleLinear resamples normalized float samples from fromRate to toRate
// using linear interpolation — fast and good enough for speech, matching the
// reference client's resampling strategy.
func resampleLinear(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	duration := float64(len(samples)) / float64(fromRate)
	newLen := int(duration * float64(toRate))
	if newLen <= 0 {
		return nil
	}

	out := make([]float64, newLen)
	lastIdx := float64(len(samples) - 1)
	for i := 0; i < newLen; i++ {
		// Position this output sample would occupy in the source timeline.
		srcPos := float64(i) / float64(newLen-1) * lastIdx
		if newLen == 1 {
			srcPos = 0
		}
		lo := int(srcPos)
		hi := lo + 1
		if hi > int(lastIdx) {
			out[i] = samples[int(lastIdx)]
			continue
		}
		frac := srcPos - float64(lo)
		out[i] = samples[lo]*(1-frac) + samples[hi]*frac
	}
	return out
}

// encodeS16LE converts normalized float samples back to little-endian int16
// PCM bytes, saturating any sample that would overflow the int16 range.
func encodeS16LE(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		scaled := s * 32767.0
		switch {
		case scaled > 32767:
			scaled = 32767
		case scaled < -32768:
			scaled = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(scaled)))
	}
	return out
}

// Convert takes a raw S16LE PCM buffer captured at deviceRate and returns the
// equivalent buffer at TargetSampleRate.
func Convert(raw []byte, deviceRate int) []byte {
	if deviceRate == TargetSampleRate {
		return raw
	}
	samples := decodeS16LE(raw)
	resampled := resampleLinear(samples, deviceRate, TargetSampleRate)
	return encodeS16LE(resampled)
}
