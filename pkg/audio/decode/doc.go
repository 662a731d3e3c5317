// ABOUTME: Audio decoding package for converting encoded audio to PCM
// ABOUTME: Supports PCM, MP3, and Opus codecs behind a common interface
// Package decode converts encoded audio payloads to normalized float32
// PCM samples.
//
// Supported codecs:
//   - pcm: raw 16-bit little-endian PCM
//   - mp3: complete MP3 payloads (via hajimehoshi/go-mp3)
//   - opus: Opus frames (via hraban/opus)
//
// Example:
//
//	dec, err := decode.New(audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 16})
//	samples, err := dec.Decode(chunk)
package decode
