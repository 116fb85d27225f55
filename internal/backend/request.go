package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/faults"
	"github.com/spigell/jobflow/internal/formdata"
	"github.com/spigell/jobflow/internal/logger"
	"github.com/spigell/jobflow/internal/resume"
	"github.com/spigell/jobflow/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// object is a decoded JSON object response. Numbers are kept as json.Number.
type object map[string]any

func (c *Client) postJSON(ctx context.Context, op, path string, payload any) (object, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, faults.Wrap(faults.Input, op, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, faults.Wrap(faults.Input, op, "build request", err)
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	return c.roundTrip(op, req)
}

func (c *Client) postFormData(ctx context.Context, op, path string, parts ...formdata.Part) (object, error) {
	body, err := formdata.Encode(parts...)
	if err != nil {
		return nil, faults.Wrap(faults.Input, op, "encode form data", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), body.Reader())
	if err != nil {
		return nil, faults.Wrap(faults.Input, op, "build request", err)
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", body.ContentType())
	req.ContentLength = int64(len(body.Bytes))

	return c.roundTrip(op, req)
}

func (c *Client) roundTrip(op string, req *http.Request) (object, error) {
	log := logger.WithFields(c.logger, logger.CommonFields(op, req.URL.Path)...)

	resp, err := c.request(log, req)
	if err != nil {
		return nil, faults.Wrap(faults.Network, op, "send request", err)
	}
	defer resp.Body.Close()

	data, err := c.readBody(op, resp)
	if err != nil {
		return nil, err
	}

	log.Debug("got response",
		zap.Int("status", resp.StatusCode),
		zap.Int("response_length", utf8.RuneCount(data)),
		zap.String("response_preview", utils.TruncateForLog(string(data), c.MaxLogLength)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, faults.Newf(faults.Protocol, op, "bad status: %s: %s", resp.Status, utils.TruncateForLog(string(data), c.MaxLogLength))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var response object
	if err := dec.Decode(&response); err != nil {
		return nil, faults.Wrap(faults.Protocol, op, "decode response", err)
	}
	if response == nil {
		return nil, faults.New(faults.Protocol, op, "response is not a JSON object")
	}

	return response, nil
}

// readBody reads at most MaxResponseBytes of the body, inflating gzip. Read
// failures are network errors; a corrupt or oversized body is a protocol error.
func (c *Client) readBody(op string, resp *http.Response) ([]byte, error) {
	limit := c.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, faults.Wrap(faults.Network, op, "read response body", err)
	}
	if int64(len(raw)) > limit {
		return nil, faults.Newf(faults.Protocol, op, "response body exceeds %d bytes", limit)
	}

	if resp.Header.Get("Content-Encoding") != contentEncoding {
		return raw, nil
	}

	gzipReader, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, faults.Wrap(faults.Protocol, op, "open gzip body", err)
	}
	defer gzipReader.Close()

	data, err := io.ReadAll(io.LimitReader(gzipReader, limit+1))
	if err != nil {
		return nil, faults.Wrap(faults.Protocol, op, "inflate gzip body", err)
	}
	if int64(len(data)) > limit {
		return nil, faults.Newf(faults.Protocol, op, "response body exceeds %d bytes", limit)
	}

	return data, nil
}

func (c *Client) request(log *zap.Logger, req *http.Request) (*http.Response, error) {
	log.Debug("make request", zap.String("url", req.URL.String()))

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

// requiredString returns the string value of key, failing when it is absent
// or not a string.
func (o object) requiredString(op, key string) (string, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return "", faults.Newf(faults.Protocol, op, "response has no %q field", key)
	}

	value, ok := raw.(string)
	if !ok {
		return "", faults.Newf(faults.Protocol, op, "response field %q is %T, expected string", key, raw)
	}

	return value, nil
}

// decode maps the object onto target using its json tags. Type mismatches
// are protocol errors; unknown keys are ignored.
func (o object) decode(op string, target any) error {
	if err := resume.DecodeFields(o, target); err != nil {
		return faults.Wrap(faults.Protocol, op, "decode response fields", err)
	}

	return nil
}
