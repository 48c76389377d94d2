package http

import "net/http"

type authTransport struct {
	header    string
	value     string
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())

	if t.value != "" {
		reqCopy.Header.Set(t.header, t.value)
	}

	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken sets "Authorization: Bearer <token>" on every request.
func WithAuthToken(token string) HttpOpts {
	if token == "" {
		return WithAuthHeader("Authorization", "")
	}
	return WithAuthHeader("Authorization", "Bearer "+token)
}

// WithAuthHeader sets header to value on every request; an empty value sends nothing.
func WithAuthHeader(header, value string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			header:    header,
			value:     value,
			transport: rt,
		}
	})
}
