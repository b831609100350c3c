// Package supervisor holds the connectivity-gated launch state machine. It
// waits silently for the network, tells the user when that takes a while, and
// either launches the app once or gives up with an error.
//
// # States
//
//	QuietWait ──probe ok──────────────> Launched
//	    │ InitialWait elapsed
//	    v
//	NotifyWait ──probe ok─────────────> Launched
//	    │ ExtendedWait elapsed
//	    v
//	Failed
//
// Probes run every CheckInterval. A tier that succeeds on its Nth sleep has
// made N+1 probe calls. Only NotifyWait shows a "searching" notification;
// QuietWait stays silent so a normal boot shows nothing but the launch popup.
//
// Time is read through the Clock interface so tests can drive the tiers
// without sleeping.
package supervisor
