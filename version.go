// Package duelist holds the release version of the duelist module.
package duelist

// Version is the current release of duelist.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
