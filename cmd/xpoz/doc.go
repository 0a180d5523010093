// Command xpoz publishes web-playable copies of the videos in a photo
// library.
//
// With no subcommand (or "run") it scans the library once, transcodes
// every video that has no published copy, and then watches for new ones
// until interrupted. "scan" does a single pass and exits; "scan --dry-run"
// only lists the work. "probe" reports which encoder settings a file
// would get, and "version" prints build information.
//
// Settings come from xpoz.toml, the file named by --config, and XPOZ_*
// environment variables. See package startup for the keys.
package main
