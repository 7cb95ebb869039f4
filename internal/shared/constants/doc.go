// Package constants centralizes defaults shared across the CLI.
//
// File permissions, request timeouts and data file names live here so cmd/ and
// internal/ reference the same values without introducing import cycles.
package constants
