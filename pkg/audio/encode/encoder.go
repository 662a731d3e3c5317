// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

// Encoder encodes normalized float32 PCM samples to wire formats.
type Encoder interface {
	// Encode converts PCM samples in [-1, 1] to encoded audio data
	Encode(samples []float32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
