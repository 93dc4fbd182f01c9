package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// SampleRate is the fixed audio format across the system: mono, 24kHz,
// 16-bit signed little-endian PCM.
const SampleRate = 24000

// ErrInvalidPCM is returned when a byte payload cannot be interpreted as
// 16-bit PCM samples.
var ErrInvalidPCM = errors.New("invalid pcm payload")

// FloatToInt16 converts normalized float samples to 16-bit signed integers.
// Values are scaled by 32768 and clamped to the representable range.
func FloatToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32768
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// Int16ToFloat converts 16-bit signed samples to normalized floats.
func Int16ToFloat(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// BytesToInt16 decodes little-endian 16-bit PCM bytes into samples.
func BytesToInt16(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: odd byte length %d", ErrInvalidPCM, len(data))
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return out, nil
}

// Int16ToBytes encodes samples as little-endian 16-bit PCM bytes.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}

// DecodeBase64PCM decodes a base64 PCM16LE payload into float samples.
func DecodeBase64PCM(encoded string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64: %v", ErrInvalidPCM, err)
	}
	samples, err := BytesToInt16(raw)
	if err != nil {
		return nil, err
	}
	return Int16ToFloat(samples), nil
}
