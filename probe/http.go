// Package probe implements the readiness checks the cascade runs against each candidate.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/network"
)

// sniffLength is how much of a stream is fetched to recognise its container.
const sniffLength = 512

// HTTP confirms a locator by fetching its first bytes and checking they look like audio.
type HTTP struct {
	Client *http.Client
}

// NewHTTP returns a prober using the shared network client.
func NewHTTP() *HTTP {
	return &HTTP{Client: network.Client}
}

// Probe implements cascade.Prober.
func (h *HTTP) Probe(ctx context.Context, locator string) error {
	u, err := url.Parse(locator)
	if err != nil {
		return fmt.Errorf("%w: %v", cascade.ErrFetch, err)
	}

	if u.Scheme == "file" {
		return probeFile(u.Path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", cascade.ErrFetch, err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", sniffLength-1))

	client := h.Client
	if client == nil {
		client = network.Client
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", cascade.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("%w: %s", cascade.ErrFetch, resp.Status)
	}

	header, err := io.ReadAll(io.LimitReader(resp.Body, sniffLength))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: read body: %v", cascade.ErrFetch, err)
	}

	return sniff(header, resp.Header.Get("Content-Type"))
}

func probeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", cascade.ErrFetch, err)
	}
	defer f.Close()

	header := make([]byte, sniffLength)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("%w: %v", cascade.ErrFetch, err)
	}
	return sniff(header[:n], "")
}

// sniff accepts the common audio signatures, rejects HTML error pages served with a
// 200, and falls back to the declared media type.
func sniff(header []byte, contentType string) error {
	if len(header) < 4 {
		return fmt.Errorf("%w: body too small to be audio (%d bytes)", cascade.ErrDecode, len(header))
	}

	switch {
	case header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return nil // MPEG audio frame
	case bytes.HasPrefix(header, []byte("ID3")):
		return nil
	case bytes.HasPrefix(header, []byte("RIFF")),
		bytes.HasPrefix(header, []byte("fLaC")),
		bytes.HasPrefix(header, []byte("OggS")):
		return nil
	case len(header) >= 8 && string(header[4:8]) == "ftyp":
		return nil // m4a
	}

	head := strings.ToLower(string(header[:min(len(header), 100)]))
	if strings.Contains(head, "<html") || strings.Contains(head, "<!doctype") {
		return fmt.Errorf("%w: mirror answered with an HTML page", cascade.ErrDecode)
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mediaType, "audio/") {
		return nil
	}

	return fmt.Errorf("%w: unrecognised stream header %x", cascade.ErrDecode, header[:min(len(header), 16)])
}
