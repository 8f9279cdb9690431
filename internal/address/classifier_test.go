package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier("hirewire.jobs")

	tests := []struct {
		name string
		addr string
		want Kind
	}{
		{"internal address", "alice@hirewire.jobs", Internal},
		{"internal address, mixed case", "Alice@HireWire.JOBS", Internal},
		{"internal address with whitespace", "  alice@hirewire.jobs ", Internal},
		{"external address", "bob@example.com", External},
		{"subdomain is not internal", "alice@mail.hirewire.jobs", External},
		{"domain as suffix only", "alice@nothirewire.jobs", External},
		{"no at sign", "alice", External},
		{"empty string", "", External},
		{"trailing at sign", "alice@", External},
		{"leading at sign", "@hirewire.jobs", External},
		{"multiple at signs, internal domain last", "a@b@hirewire.jobs", Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.addr))
		})
	}
}

func TestIsInternal(t *testing.T) {
	c := NewClassifier("hirewire.jobs")

	assert.True(t, c.IsInternal("alice@hirewire.jobs"))
	assert.False(t, c.IsInternal("alice@gmail.com"))
}
