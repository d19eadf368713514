package gateway

// Send builds the environment for req, calls app and drains the returned
// sequence. If app never calls start, status is "" and headers is nil.
func Send(app App, req Request) (string, []Header, []byte) {
	var (
		status  string
		headers []Header
	)

	start := func(s string, h []Header) {
		status = s
		headers = h
	}

	env := NewEnviron(req)

	body := []byte{}

	seq := app(env, start)
	if seq == nil {
		return status, headers, body
	}

	for chunk := range seq {
		body = append(body, chunk...)
	}

	return status, headers, body
}
