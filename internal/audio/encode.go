package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// EncodeWAV packages a clip as a mono PCM16 WAV file, the format used
// for exported audio.
func EncodeWAV(clip Clip) ([]byte, error) {
	if clip.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", clip.SampleRate)
	}

	samples := make([]int, len(clip.PCM)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(clip.PCM[i*2:])))
	}

	buf := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(buf, clip.SampleRate, 16, 1, 1)
	err := encoder.Write(&gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: clip.SampleRate},
		SourceBitDepth: 16,
		Data:           samples,
	})
	if err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}

	return io.ReadAll(buf.Reader())
}
