package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// ErrUnknownEncoding indicates bytes that are neither WAV nor MP3.
var ErrUnknownEncoding = errors.New("unrecognized audio encoding")

// Clip is decoded audio: signed 16-bit little-endian mono samples.
type Clip struct {
	PCM        []byte
	SampleRate int
}

// Duration returns the clip's play time.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	samples := len(c.PCM) / 2
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// Decode sniffs the container and decodes to mono PCM16.
func Decode(data []byte) (Clip, error) {
	switch {
	case isWAV(data):
		return decodeWAV(data)
	case isMP3(data):
		return decodeMP3(data)
	default:
		return Clip{}, ErrUnknownEncoding
	}
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE"))
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")) {
		return true
	}
	// Frame sync: eleven set bits.
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func decodeWAV(data []byte) (Clip, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return Clip{}, errors.New("invalid wav file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return Clip{}, errors.New("wav file missing format")
	}

	samples := normalizeDepth(buf.Data, int(decoder.BitDepth))
	samples = mixToMono(samples, buf.Format.NumChannels)

	return Clip{PCM: samplesToBytes(samples), SampleRate: buf.Format.SampleRate}, nil
}

func decodeMP3(data []byte) (Clip, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("decode mp3: %w", err)
	}

	// go-mp3 always emits 16-bit stereo.
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return Clip{}, fmt.Errorf("decode mp3: %w", err)
	}

	frames := len(raw) / 4
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(raw[i*4:]))
		right := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
		mono[i] = int16((int32(left) + int32(right)) / 2)
	}

	return Clip{PCM: samplesToBytes(mono), SampleRate: decoder.SampleRate()}, nil
}

// normalizeDepth rescales decoded integer samples to 16 bits.
func normalizeDepth(data []int, bitDepth int) []int16 {
	out := make([]int16, len(data))
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		for i, v := range data {
			out[i] = int16((v - 128) << 8)
		}
	case 24:
		for i, v := range data {
			out[i] = int16(v >> 8)
		}
	case 32:
		for i, v := range data {
			out[i] = int16(v >> 16)
		}
	default:
		for i, v := range data {
			out[i] = int16(v)
		}
	}
	return out
}

// mixToMono averages interleaved channels down to one.
func mixToMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		mono[i] = int16(sum / int32(channels))
	}
	return mono
}

func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
