package server

import (
	"net/http"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

// testBaseURL is the host requests of a ServerTestFixture are addressed to. Fiber's
// test engine serves every host.
const testBaseURL = "http://oracle.test"

// ServerTestFixture serves the requests of a single test from a server built for it,
// without opening a socket.
type ServerTestFixture struct {
	t   *testing.T
	srv *ServerHTTP
}

// RoundTrip hands req to the Fiber test engine and waits for the response without a deadline.
func (f *ServerTestFixture) RoundTrip(req *http.Request) (*http.Response, error) {
	return f.srv.app.Test(req, -1)
}

// Client returns a resty client bound to the fixture's server. Transport errors fail the test.
func (f *ServerTestFixture) Client() *resty.Client {
	f.t.Helper()

	return resty.New().
		SetTransport(f).
		SetBaseURL(testBaseURL).
		OnError(func(_ *resty.Request, err error) {
			require.NoError(f.t, err, "request to the test server failed")
		})
}

// NewServerTestFixture builds a server from opts for the duration of t.
func NewServerTestFixture(t *testing.T, opts ...ServerOption) *ServerTestFixture {
	t.Helper()
	return &ServerTestFixture{t: t, srv: New(opts...)}
}
