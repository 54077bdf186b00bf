// Package utils provides common utility functions for the rcconf-manager application.
// It includes helpers for converting between Go values and the string values
// stored in rc.conf (YES/NO knobs, space separated lists).
package utils
