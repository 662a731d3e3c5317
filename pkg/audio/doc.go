// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and normalized sample conversion functions
// Package audio provides fundamental audio types and utilities for the
// voice relay pipeline.
//
// This package defines the core types used throughout the module:
//   - Format: Describes a PCM stream (codec, sample rate, channels, bit depth)
//
// It also provides conversions between signed 16-bit little-endian PCM and
// normalized float32 samples in [-1, 1], using full-scale 32767.
//
// Example:
//
//	format := audio.Format{
//	    Codec:      "pcm",
//	    SampleRate: 16000,
//	    Channels:   1,
//	    BitDepth:   16,
//	}
//
//	sample := audio.SampleFromInt16(pcm16)
package audio
