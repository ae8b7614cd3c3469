package audio

import (
	"encoding/binary"
	"fmt"
)

// ResamplePCM16 converts PCM16 mono audio between sample rates with
// linear interpolation. Input and output are little-endian signed
// 16-bit samples.
func ResamplePCM16(input []byte, fromRate, toRate int) ([]byte, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: from=%d, to=%d", fromRate, toRate)
	}
	if len(input)%2 != 0 {
		return nil, fmt.Errorf("input length %d is not sample-aligned", len(input))
	}
	if fromRate == toRate {
		out := make([]byte, len(input))
		copy(out, input)
		return out, nil
	}

	numIn := len(input) / 2
	if numIn == 0 {
		return []byte{}, nil
	}
	numOut := int(float64(numIn) * float64(toRate) / float64(fromRate))
	if numOut == 0 {
		return []byte{}, nil
	}

	in := make([]int16, numIn)
	for i := range in {
		in[i] = int16(binary.LittleEndian.Uint16(input[i*2:]))
	}

	out := make([]int16, numOut)
	ratio := float64(fromRate) / float64(toRate)
	for i := range out {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		if srcIdx >= numIn-1 {
			out[i] = in[numIn-1]
			continue
		}
		s0 := float64(in[srcIdx])
		s1 := float64(in[srcIdx+1])
		out[i] = int16(s0 + frac*(s1-s0))
	}

	return samplesToBytes(out), nil
}
