package formatters

import "os"

var hostname string

func init() {
	// Cached once; the hostname does not change over a process's life.
	hostname, _ = os.Hostname()
}

// getHostname returns the cached hostname
func getHostname() string {
	return hostname
}

// getPID returns the current process ID
func getPID() int {
	return os.Getpid()
}
