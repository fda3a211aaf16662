package net

import (
	"net/http"
	"time"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
	clientAgent      = "brisque (+https://github.com/mchmarny/brisque)"
)

var (
	reqTransport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		DisableCompression:    true,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
	}
)

// HTTPClient is the subset of *http.Client used for downloads.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// GetHTTPClient returns a client without an overall request timeout.
// Transfers are bounded only by the caller's context and the transport's
// response header timeout.
func GetHTTPClient() *http.Client {
	return &http.Client{
		Transport: reqTransport,
	}
}
