package cli

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialCheck_Address(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://localhost:8080", "localhost:8080"},
		{"http://api.example.com/v1", "api.example.com:80"},
		{"https://api.example.com", "api.example.com:443"},
		{"http://[::1]:9000", "[::1]:9000"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			check, err := newDialCheck(tt.url, time.Second)
			require.NoError(t, err)
			assert.Equal(t, tt.want, check.addr)
		})
	}
}

func TestNewDialCheck_Rejects(t *testing.T) {
	for _, raw := range []string{"", "localhost", "ftp://files.example.com", "http://%zz"} {
		_, err := newDialCheck(raw, time.Second)
		assert.Error(t, err, raw)
	}
}

func TestDialCheck_Online(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	check := &dialCheck{addr: ln.Addr().String(), timeout: time.Second}
	assert.True(t, check.Online())

	require.NoError(t, ln.Close())
	assert.False(t, check.Online())
}
