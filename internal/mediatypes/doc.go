// Package mediatypes holds the naming rules shared by the scanner, the
// watcher and the encoder.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles.
//
// # Recognized Videos
//
// A file is a recognized video when its extension, compared
// case-insensitively, is in [VideoExtensions]:
//
//	mediatypes.IsVideo("C3D4.MOV") // true
//	mediatypes.IsVideo("C3D4.jpg") // false
//
// # Identity Keys
//
// Source files and their published variants are correlated by
// [IdentityKey], the base name up to the first ".". Consumers of the publish
// directory depend on this exact convention, so multi-dot names collapse to
// their first segment:
//
//	mediatypes.IdentityKey("/lib/originals/4/A1B2.mov") // "A1B2"
//	mediatypes.OutputName("/lib/originals/4/A1B2.mov")  // "A1B2.mp4"
package mediatypes
