package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/pixelveil/pixelveil/internal/chunker"
)

// Client is the sender/receiver side of the relay: uploads chunked artifacts
// over HTTP and retrieves them back over DNS TXT queries.
type Client struct {
	httpBase string
	dnsAddr  string
	domain   string
	clientID string
	log      logrus.FieldLogger

	resolver *dns.Client
	httpc    *http.Client

	// queryDelay paces successive chunk queries so retrieval does not look
	// like a burst of sequential lookups.
	queryDelay time.Duration
}

// NewClient creates a relay client. clientID distinguishes receivers at the
// poll endpoint; senders may pass anything.
func NewClient(httpBase, dnsAddr, domain, clientID string, log logrus.FieldLogger) *Client {
	return &Client{
		httpBase:   strings.TrimSuffix(httpBase, "/"),
		dnsAddr:    dnsAddr,
		domain:     strings.ToLower(strings.TrimSuffix(domain, ".")),
		clientID:   clientID,
		log:        log,
		resolver:   &dns.Client{Timeout: 5 * time.Second},
		httpc:      &http.Client{Timeout: 10 * time.Second},
		queryDelay: 50 * time.Millisecond,
	}
}

// Manifest describes a parked message: chunk count and fragment encoding.
// The wire form is "<total>:<encoding>".
func Manifest(total uint16, encoding chunker.Encoding) string {
	return fmt.Sprintf("%d:%s", total, encoding)
}

// ParseManifest parses the wire form produced by Manifest.
func ParseManifest(s string) (uint16, chunker.Encoding, error) {
	totalStr, encStr, found := strings.Cut(s, ":")
	if !found {
		return 0, "", fmt.Errorf("malformed manifest %q", s)
	}
	total, err := strconv.ParseUint(totalStr, 10, 16)
	if err != nil {
		return 0, "", fmt.Errorf("malformed manifest total %q: %w", totalStr, err)
	}
	enc := chunker.Encoding(encStr)
	if enc != chunker.EncodingHex && enc != chunker.EncodingBase32 {
		return 0, "", fmt.Errorf("unknown manifest encoding %q", encStr)
	}
	return uint16(total), enc, nil
}

// Upload sends a chunked message to the relay, retrying transient failures
// with backoff.
func (c *Client) Upload(ctx context.Context, msg *chunker.Message, encoding chunker.Encoding) error {
	if len(msg.Chunks) == 0 {
		return fmt.Errorf("nothing to upload")
	}

	chunks := make(map[uint16]string, len(msg.Chunks))
	for _, chunk := range msg.Chunks {
		chunks[chunk.Metadata.Sequence] = chunk.Encoded
	}
	total := msg.Chunks[0].Metadata.Total

	body, err := json.Marshal(UploadRequest{
		MessageID: msg.IDString(),
		Total:     total,
		Manifest:  Manifest(total, encoding),
		Chunks:    chunks,
	})
	if err != nil {
		return fmt.Errorf("encode upload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.postUpload(ctx, body)
		if lastErr == nil {
			c.log.WithFields(logrus.Fields{
				"message": msg.IDString(),
				"chunks":  len(chunks),
			}).Info("upload complete")
			return nil
		}
		c.log.WithError(lastErr).WithField("attempt", attempt).Warn("upload failed")
	}
	return fmt.Errorf("upload failed after retries: %w", lastErr)
}

func (c *Client) postUpload(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpBase+"/upload", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay returned %s", resp.Status)
	}
	return nil
}

// Poll asks the relay for message IDs this client has not yet fetched.
func (c *Client) Poll(ctx context.Context) ([]string, error) {
	name := fmt.Sprintf("poll.%s.%s", c.clientID, c.domain)
	values, err := c.txt(ctx, name)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// Fetch retrieves all chunks of a message and reassembles the original bytes.
func (c *Client) Fetch(ctx context.Context, msgID string) ([]byte, error) {
	manifestValues, err := c.txt(ctx, fmt.Sprintf("m-%s.%s", msgID, c.domain))
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	if len(manifestValues) == 0 {
		return nil, fmt.Errorf("no manifest for message %s", msgID)
	}
	total, encoding, err := ParseManifest(manifestValues[0])
	if err != nil {
		return nil, err
	}

	ck := chunker.New(encoding)
	chunks := make([]chunker.Chunk, 0, total)
	for seq := uint16(0); seq < total; seq++ {
		if seq > 0 && c.queryDelay > 0 {
			select {
			case <-time.After(c.queryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		values, err := c.txt(ctx, fmt.Sprintf("c-%d-%s.%s", seq, msgID, c.domain))
		if err != nil {
			return nil, fmt.Errorf("fetch chunk %d: %w", seq, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("chunk %d of message %s missing", seq, msgID)
		}
		chunk, err := ck.Decode(values[0])
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", seq, err)
		}
		chunks = append(chunks, *chunk)
	}

	return ck.Reassemble(chunks)
}

// Ack tells the relay this client has decoded the message.
func (c *Client) Ack(ctx context.Context, msgID string) error {
	name := fmt.Sprintf("ack-%s.%s.%s", msgID, c.clientID, c.domain)
	values, err := c.txt(ctx, name)
	if err != nil {
		return err
	}
	if len(values) == 0 || values[0] != "ok" {
		return fmt.Errorf("relay did not acknowledge message %s", msgID)
	}
	return nil
}

func (c *Client) txt(ctx context.Context, name string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeTXT)

	resp, _, err := c.resolver.ExchangeContext(ctx, m, c.dnsAddr)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}

	var out []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			out = append(out, txt.Txt...)
		}
	}
	return out, nil
}
