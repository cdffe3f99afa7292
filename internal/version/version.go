// ABOUTME: Version constants for the narrate player
// ABOUTME: Single source of truth for product identification
package version

const (
	// Version is the software version
	Version = "0.1.0"

	// Product is the product name
	Product = "Storyglow Narrator"

	// Manufacturer is the product manufacturer
	Manufacturer = "Storyglow Audio"
)
