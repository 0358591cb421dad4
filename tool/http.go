package tool

import (
	"net/http"
	"time"
)

var (
	DefaultTimeout = 30 * time.Second

	uploadHttpClient *http.Client
	statusHttpClient *http.Client
)

func init() {
	InitHTTPClients()
}

// InitHTTPClients (re)initializes the shared HTTP clients.
// The upload client has no overall timeout because multi-hundred-megabyte
// bodies can legitimately take minutes; the header timeout still bounds a
// dead service. The status client is short-lived request/response only.
func InitHTTPClients() {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: DefaultTimeout,
	}
	uploadHttpClient = &http.Client{
		Transport: transport,
	}
	statusHttpClient = &http.Client{
		Timeout:   DefaultTimeout,
		Transport: transport,
	}
}

// GetUploadHttpClient returns the client used for multipart upload bodies.
func GetUploadHttpClient() *http.Client {
	return uploadHttpClient
}

// GetStatusHttpClient returns the client used for status, cancel and other
// small control requests.
func GetStatusHttpClient() *http.Client {
	return statusHttpClient
}
