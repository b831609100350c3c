// Package platform checks whether karaokepi runs on the hardware and OS
// release it was built for. Mismatches are warnings only.
package platform
