/*
Package cli provides shared helpers for the callisto command-line
interface: output formatting, command error types, and signal handling.

Commands that print results accept an --output flag mapped to an
OutputFormat; NewFormatter returns the matching Formatter. Long-running
commands derive their context from SetupSignalHandler so Ctrl-C shuts
them down cleanly.
*/
package cli
