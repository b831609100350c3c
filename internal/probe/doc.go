// Package probe answers one question with a bounded wait: is the network
// reachable right now?
package probe
