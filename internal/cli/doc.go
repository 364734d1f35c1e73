// Package cli renders comparison runs for the terminal.
//
// # Naming Conventions
//
//   - Display* functions write formatted output to an [io.Writer].
//   - Format* functions return a formatted string without performing I/O.
//   - Write* functions write data to files on the filesystem.
package cli
