// Package version exposes build version metadata for inclusion in startup
// log lines, grounded on the teacher's go.mod dependency on
// github.com/carlmjohnson/versioninfo.
package version

import "github.com/carlmjohnson/versioninfo"

// String returns a short human-readable build description (revision,
// dirty flag, and commit time if known).
func String() string {
	return versioninfo.Short()
}
