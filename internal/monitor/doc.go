// Package monitor runs the poll loop and draws the dashboard.
//
// # Architecture
//
// Discover does the one-shot reads (router config, version, memory size,
// disks, sensors, services) and returns a Plan. A Poller built from the plan
// refreshes every updater once per tick in a fixed order and hands the
// renderer a Snapshot, a deep copy that shares nothing with the updaters:
//
//	sysctl batch (memory, temperatures, CPU)
//	disks
//	interfaces
//	gateways
//	services
//	pf state table
//	mbufs
//	filesystems
//	firewall log copy
//
// The first updater error aborts the tick and Run returns it. The dashboard
// stops rather than show stale numbers.
//
// # Rendering
//
// Render turns a Snapshot into text. Model wraps it in a Bubble Tea program
// for interactive terminals; PlainRenderer redraws in place for everything
// else.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
package monitor
