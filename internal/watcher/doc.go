// Package watcher turns fsnotify events under a directory tree into a stream
// of newly created file paths.
//
// fsnotify watches single directories, so the Watcher subscribes to every
// directory under its root at start and to each directory created later.
// A directory that appears with contents (moved or copied in whole) has
// those files reported as created.
//
// A created file is reported only after it has gone DefaultDebounce (or the
// configured window) without further Create, Write or Chmod events, so a
// file being copied in chunks is reported once, after the copy. Removing or
// renaming a pending file cancels it. Hidden files and directories are
// ignored.
package watcher
