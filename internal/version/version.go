// ABOUTME: Version constants for the voice relay
// ABOUTME: Identifies the product in logs and discovery records
package version

const (
	Product      = "Voice Relay"
	Manufacturer = "VersionOne"
	Version      = "0.1.0"
)
