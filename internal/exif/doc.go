// Package exif turns catalog metadata into exiftool write directives.
//
// Parse decodes the metadata JSON stored with each catalog record, KindForPath
// classifies the target by extension, and Build produces the ordered directive
// list for one file. Build is pure: it performs no I/O and reports problems
// with individual fields as warnings instead of failing, so one malformed
// timestamp never prevents the camera, location, or keyword directives from
// being written.
package exif
