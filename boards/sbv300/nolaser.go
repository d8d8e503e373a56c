//go:build !laser

package sbv300

const HasLaser = false
