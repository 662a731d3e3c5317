// ABOUTME: Audio encoding package for converting PCM to wire formats
// ABOUTME: Provides 16-bit PCM encoding and WAV container wrapping
// Package encode converts normalized float32 PCM samples to wire formats.
//
// The PCM encoder produces 16-bit little-endian bytes, the interchange
// format used by both the capture and playback sides. WrapWAV adds a RIFF
// header for APIs that require a self-describing file.
package encode
