package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveHostForDocker_NonLocalHostsUnchanged(t *testing.T) {
	// Non-localhost hosts are never rewritten, in or out of Docker.
	for _, host := range []string{"db.example.com", "192.168.1.100", "host.docker.internal"} {
		assert.Equal(t, host, ResolveHostForDocker(host))
	}
}

func TestResolveHostForDocker_LocalhostVariants(t *testing.T) {
	// The rewrite only applies inside a container, so the expectation
	// depends on where the test runs.
	for _, host := range []string{"localhost", "127.0.0.1"} {
		got := ResolveHostForDocker(host)
		if IsRunningInDocker() {
			assert.Equal(t, "host.docker.internal", got)
		} else {
			assert.Equal(t, host, got)
		}
	}
}
