// Package ui holds the interactive pieces of pfdash outside the dashboard:
// the SSH host picker used by "pfdash init" and the shared status colors and
// symbols printed by the CLI.
package ui
