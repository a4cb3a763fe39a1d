// Package preflight provides readiness checks for the external tool and the
// filesystem paths that mediakeep depends on.
//
// The CLI "mediakeep status" command runs RunAll to display readiness. A
// write run does not depend on this package: it locates exiftool itself and
// fails fast when the tool is missing.
package preflight
