// Package ipc lets a second hushdesk process hand a request to the running
// instance, for example to bring its window back.
package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const maxFrameBytes = 16 * 1024

// Commands understood by the running instance.
const (
	CommandActivate = "activate"
	CommandToggle   = "toggle"
	CommandPing     = "ping"
)

// Request is one newline-terminated JSON frame sent by a client.
type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Response answers one Request.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Handler executes a request inside the running instance.
type Handler interface {
	Handle(req Request) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(req Request) Response

func (f HandlerFunc) Handle(req Request) Response { return f(req) }

// ErrorResponse builds a failed Response.
func ErrorResponse(format string, args ...any) Response {
	return Response{Error: fmt.Sprintf(format, args...)}
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	req.Command = strings.ToLower(strings.TrimSpace(req.Command))
	if req.Command == "" {
		return Request{}, errors.New("command is required")
	}
	return req, nil
}

func writeFrame(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(raw, '\n'))
	return err
}

// readFrame reads one newline-terminated frame. A final frame without the
// delimiter is accepted at EOF.
func readFrame(reader *bufio.Reader) ([]byte, error) {
	raw, err := reader.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, fmt.Errorf("frame exceeds %d bytes", maxFrameBytes)
	case errors.Is(err, io.EOF):
		if len(raw) == 0 {
			return nil, io.EOF
		}
		return raw, nil
	case err != nil:
		return nil, err
	}
	return raw, nil
}

func newFrameReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, maxFrameBytes+1)
}
