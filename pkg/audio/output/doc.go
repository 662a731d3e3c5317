// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface and oto implementation
// Package output provides audio playback interfaces.
//
// The oto backend plays 16-bit PCM through a persistent player fed by a
// pipe, so Write blocks until the device pipeline has consumed the buffer.
//
// Example:
//
//	out := output.NewOto(logger)
//	err := out.Open(16000, 1)
//	err = out.Write(samples)
package output
