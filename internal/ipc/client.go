package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

const (
	dialTimeout = 2 * time.Second
	rwTimeout   = 5 * time.Second
)

// Send delivers req to the instance listening on address and returns its
// response. An empty address selects DefaultAddress.
func Send(address string, req Request) (Response, error) {
	if address == "" {
		address = DefaultAddress()
	}
	conn, err := dial(address, dialTimeout)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(rwTimeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	if err := writeFrame(conn, req); err != nil {
		return Response{}, err
	}

	raw, err := readFrame(newFrameReader(conn))
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, fmt.Errorf("invalid response: %w", err)
	}
	return resp, nil
}

// IsConnectionError reports whether err means no instance is listening.
func IsConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "open"
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Op == "open"
	}
	return errors.Is(err, os.ErrNotExist)
}
