// ABOUTME: WAV container writer
// ABOUTME: Wraps raw 16-bit PCM in a RIFF header for file-based APIs
package encode

import (
	"encoding/binary"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

const wavAudioFormatPCM = 1

// WrapWAV prepends a RIFF/WAVE header to raw 16-bit PCM bytes so the
// buffer can be handed to APIs that expect a self-describing audio file.
func WrapWAV(pcm []byte, format audio.Format) []byte {
	blockAlign := format.Channels * 2
	byteRate := format.SampleRate * blockAlign

	out := make([]byte, 44+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], wavAudioFormatPCM)
	binary.LittleEndian.PutUint16(out[22:24], uint16(format.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)

	return out
}
