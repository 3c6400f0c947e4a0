// Package main provides the entry point of GoEventHub, a web application to
// publish events, register attendees and check them in with QR codes.
// The application uses fiber for the web interface, gorm for persistence
// and cobra for the command line.
package main
