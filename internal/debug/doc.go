// Package debug provides the leveled logger shared by the overlay.
//
// Messages go to stderr unless Init is given a file path, in which case
// they are appended to that file. OVERLAY_LOG_FILE and OVERLAY_LOG_LEVEL
// select the destination and threshold at startup.
package debug
