package discovery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultServiceName_HasProductPrefix(t *testing.T) {
	name := DefaultServiceName()
	assert.True(t, strings.HasPrefix(name, "spacelinkd"))
}

func TestShutdown_NilAnnouncerIsNoop(t *testing.T) {
	var a *Announcer
	assert.NotPanics(t, func() { a.Shutdown() })
}
