//go:build laser

package sbv300

// HasLaser puts a laser tool on socket 6.
const HasLaser = true
