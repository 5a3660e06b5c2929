package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 512

// ProxyExecutor posts queries to the HTTP query proxy:
//
//	POST <endpoint>
//	Content-Type: application/x-www-form-urlencoded
//	Authorization: Basic ...
//
//	query=<template>&params=<JSON array of bind values>
//
// and expects {"rows": [...], "rowCount": n} back.
type ProxyExecutor struct {
	endpoint string
	username string
	password string
	client   *http.Client
}

type ProxyOption func(*ProxyExecutor)

func WithBasicAuth(username, password string) ProxyOption {
	return func(e *ProxyExecutor) {
		e.username = username
		e.password = password
	}
}

func WithHTTPClient(client *http.Client) ProxyOption {
	return func(e *ProxyExecutor) {
		if client != nil {
			e.client = client
		}
	}
}

func WithTimeout(d time.Duration) ProxyOption {
	return func(e *ProxyExecutor) {
		e.client.Timeout = d
	}
}

func NewProxyExecutor(endpoint string, opts ...ProxyOption) *ProxyExecutor {
	e := &ProxyExecutor{
		endpoint: endpoint,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type proxyReply struct {
	Rows     []Row  `json:"rows"`
	RowCount *int   `json:"rowCount"`
	Error    string `json:"error"`
}

func (e *ProxyExecutor) Execute(ctx context.Context, query string, params ...any) (*Result, error) {
	if params == nil {
		params = []any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode bind values: %w", err)
	}

	form := url.Values{}
	form.Set("query", query)
	form.Set("params", string(encoded))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrTransport, ErrNotSent, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if e.username != "" || e.password != "" {
		req.SetBasicAuth(e.username, e.password)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if notSent(err) {
			return nil, fmt.Errorf("%w: %w: %w", ErrTransport, ErrNotSent, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read reply: %w", ErrTransport, err)
	}
	return decodeReply(resp.StatusCode, body)
}

// notSent reports failures that happen before any request bytes are
// written: name resolution and connection setup.
func notSent(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func decodeReply(status int, body []byte) (*Result, error) {
	var reply proxyReply
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&reply); err != nil {
		if status >= http.StatusMultipleChoices {
			return nil, fmt.Errorf("%w: status %d: %s", ErrStore, status, truncate(body))
		}
		return nil, fmt.Errorf("%w: %w", ErrResponseParse, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrStore, reply.Error)
	}
	if status >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d", ErrStore, status)
	}

	res := &Result{Rows: reply.Rows}
	if reply.RowCount != nil {
		res.RowCount = *reply.RowCount
	} else {
		res.RowCount = len(reply.Rows)
	}
	return res, nil
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
