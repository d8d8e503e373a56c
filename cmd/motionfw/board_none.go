//go:build tinygo && !sbv300 && !g2v9 && !picocnc

package main

// Build with exactly one board tag: -tags sbv300, -tags g2v9 or -tags picocnc.
var board = no_board_selected_use_a_board_build_tag
