// Package uniuri generates cryptographically secure random strings.
// It backs session identifiers and registration codes.
package uniuri
