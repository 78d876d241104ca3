// Package version holds the release of q2types, run reports record it
package version

// VERSION is the q2types release
const VERSION = "0.1.0"
