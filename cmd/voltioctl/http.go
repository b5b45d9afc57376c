package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient() *resty.Client {
	c := resty.New().
		SetBaseURL(apiFlag).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	if userFlag != "" {
		c.SetHeader("X-User-Id", userFlag)
	}
	return c
}

// do runs the request and returns the raw body, treating any non-2xx status
// as an error carrying the response body.
func do(req func(c *resty.Client) (*resty.Response, error)) ([]byte, error) {
	resp, err := req(newClient())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}
