// Package cli implements the pfdash command-line interface.
//
// The root command runs the dashboard: it loads the config, opens the SSH
// connection, runs discovery once, then starts two goroutines under an
// errgroup: the poll loop and the firewall log tailer. The tailer dials its
// own connection so its stream never shares a channel with the poll loop.
// The first error from either goroutine stops the dashboard and makes the
// process exit with status 1.
//
// Output goes to a Bubble Tea program when stdout is a terminal, or to the
// plain renderer otherwise (and with --plain).
//
//	pfdash                 - Run the dashboard
//	pfdash init            - Write a starter config
//	pfdash doctor          - Check the config, connection and router tools
//	pfdash version         - Print version information
//	pfdash completion      - Generate shell completion
package cli
