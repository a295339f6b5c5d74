// Package rot13 implements the ROT13 letter substitution over raw bytes.
// ASCII letters rotate 13 places within their case; every other byte is left alone,
// which makes the transform its own inverse.
package rot13
