// Browser header auth for the YouTube Music proxy.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	curlHeader = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookie = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
)

// headers the proxy rebuilds per request and must not be pinned in the auth file
var volatileHeaders = map[string]bool{
	"content-length":  true,
	"accept-encoding": true,
	"host":            true,
	"connection":      true,
}

// BrowserAuth is the header set ytmusicapi expects in a browser.json file.
// Keys are lowercase header names.
type BrowserAuth map[string]string

// ParseCurlFile reads a "Copy as cURL" dump of an authenticated music.youtube.com request.
func ParseCurlFile(path string) (BrowserAuth, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurl(string(content))
}

// ParseCurl extracts the request headers and cookie from a cURL command line.
//
// A cookie is required: without one the proxy cannot act on the account.
func ParseCurl(cmd string) (BrowserAuth, error) {
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\\r\n", " ")

	auth := BrowserAuth{}
	for _, m := range curlHeader.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstGroup(m), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || volatileHeaders[key] {
			continue
		}
		auth[key] = strings.TrimSpace(value)
	}

	if m := curlCookie.FindStringSubmatch(cmd); m != nil {
		auth["cookie"] = strings.TrimSpace(firstGroup(m))
	}

	if auth["cookie"] == "" {
		return nil, fmt.Errorf("%w: no cookie found in curl command", ErrInvalidCredentials)
	}
	if _, ok := auth["x-goog-authuser"]; !ok {
		auth["x-goog-authuser"] = "0"
	}
	return auth, nil
}

// WriteFile stores the headers as a browser.json file readable by the proxy.
func (a BrowserAuth) WriteFile(path string) error {
	data, err := MarshalJSON(a, true)
	if err != nil {
		return fmt.Errorf("failed to encode auth headers: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	return nil
}

// HeadersRaw renders the headers as newline separated "Key: Value" pairs, sorted by key.
func (a BrowserAuth) HeadersRaw() string {
	lines := make([]string, 0, len(a))
	for k, v := range a {
		lines = append(lines, k+": "+v)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func firstGroup(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
