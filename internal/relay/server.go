package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/pixelveil/pixelveil/internal/config"
)

// Backend is the storage contract the server needs. Both Store and FileStore
// satisfy it.
type Backend interface {
	Publish(id string, total uint16, manifest string, chunks map[uint16]string) error
	Chunk(msgID string, seq uint16) (string, bool)
	Manifest(msgID string) (string, bool)
	Pending(clientID string) []string
	Ack(msgID, clientID string) error
	Stats() Stats
	Sweep(ttl time.Duration) int
}

// Server answers DNS TXT retrieval queries and HTTP upload requests against a
// shared chunk store.
//
// Query grammar, all relative to the configured domain:
//
//	c-<seq>-<msgid>    one encoded chunk
//	m-<msgid>          message manifest ("<total>:<encoding>")
//	poll.<clientid>    comma-joined IDs of messages the client has not seen
//	ack-<msgid>.<clientid>  acknowledge a decoded message
type Server struct {
	domain string
	cfg    config.RelayConfig
	store  Backend
	log    logrus.FieldLogger

	dnsServer  *dns.Server
	httpServer *http.Server
}

// NewServer wires a relay server. The domain is normalized to lowercase with
// no trailing dot.
func NewServer(cfg config.RelayConfig, store Backend, log logrus.FieldLogger) *Server {
	return &Server{
		domain: strings.ToLower(strings.TrimSuffix(cfg.Domain, ".")),
		cfg:    cfg,
		store:  store,
		log:    log,
	}
}

// Run serves DNS and HTTP until ctx is cancelled, sweeping expired messages
// on the configured TTL.
func (s *Server) Run(ctx context.Context) error {
	mux := dns.NewServeMux()
	mux.HandleFunc(s.domain+".", s.ServeDNS)
	s.dnsServer = &dns.Server{Addr: s.cfg.DNSAddr, Net: "udp", Handler: mux}

	httpMux := http.NewServeMux()
	httpMux.HandleFunc("/upload", s.handleUpload)
	httpMux.HandleFunc("/status", s.handleStatus)
	s.httpServer = &http.Server{Addr: s.cfg.HTTPAddr, Handler: httpMux}

	errCh := make(chan error, 2)
	go func() {
		s.log.WithField("addr", s.cfg.DNSAddr).Info("dns listener starting")
		errCh <- s.dnsServer.ListenAndServe()
	}()
	go func() {
		s.log.WithField("addr", s.cfg.HTTPAddr).Info("http listener starting")
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(s.cfg.ChunkTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.store.Sweep(s.cfg.ChunkTTL); removed > 0 {
				s.log.WithField("removed", removed).Info("swept expired messages")
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.log.WithError(err).Warn("http shutdown failed")
			}
			return s.dnsServer.ShutdownContext(shutdownCtx)
		}
	}
}

// ServeDNS answers TXT queries per the relay query grammar. Unknown names get
// an empty authoritative answer rather than an error, which keeps the channel
// quiet to casual observation.
func (s *Server) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	msg := new(dns.Msg)
	msg.SetReply(r)
	msg.Authoritative = true

	for _, q := range r.Question {
		if q.Qtype != dns.TypeTXT {
			continue
		}
		s.answerTXT(q, msg, w)
	}

	if err := w.WriteMsg(msg); err != nil {
		s.log.WithError(err).Warn("dns write failed")
	}
}

func (s *Server) answerTXT(q dns.Question, msg *dns.Msg, w dns.ResponseWriter) {
	qname := strings.ToLower(strings.TrimSuffix(q.Name, "."))
	suffix := "." + s.domain
	if !strings.HasSuffix(qname, suffix) {
		return
	}
	label := strings.TrimSuffix(qname, suffix)

	var value string
	var ttl uint32 = 300

	switch {
	case strings.HasPrefix(label, "c-"):
		value = s.lookupChunk(label)

	case strings.HasPrefix(label, "m-"):
		if manifest, ok := s.store.Manifest(strings.TrimPrefix(label, "m-")); ok {
			value = manifest
		}

	case label == "poll" || strings.HasPrefix(label, "poll."):
		clientID := strings.TrimPrefix(label, "poll")
		clientID = strings.TrimPrefix(clientID, ".")
		if clientID == "" {
			clientID = w.RemoteAddr().String()
		}
		ids := s.store.Pending(clientID)
		value = strings.Join(ids, ",")
		ttl = 60
		if len(ids) > 0 {
			s.log.WithFields(logrus.Fields{
				"client":   clientID,
				"messages": len(ids),
			}).Info("delivered pending message ids")
		}

	case strings.HasPrefix(label, "ack-"):
		rest := strings.TrimPrefix(label, "ack-")
		msgID, clientID, found := strings.Cut(rest, ".")
		if !found {
			clientID = w.RemoteAddr().String()
		}
		if err := s.store.Ack(msgID, clientID); err != nil {
			s.log.WithError(err).WithField("message", msgID).Warn("ack failed")
			return
		}
		value = "ok"
		ttl = 60
		s.log.WithFields(logrus.Fields{
			"message": msgID,
			"client":  clientID,
		}).Info("message acknowledged")
	}

	if value == "" && !strings.HasPrefix(label, "poll") {
		return
	}

	msg.Answer = append(msg.Answer, &dns.TXT{
		Hdr: dns.RR_Header{
			Name:   q.Name,
			Rrtype: dns.TypeTXT,
			Class:  dns.ClassINET,
			Ttl:    ttl,
		},
		Txt: []string{value},
	})
}

// lookupChunk resolves a c-<seq>-<msgid> label.
func (s *Server) lookupChunk(label string) string {
	parts := strings.SplitN(label, "-", 3)
	if len(parts) != 3 {
		return ""
	}
	seq, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return ""
	}
	data, ok := s.store.Chunk(parts[2], uint16(seq))
	if !ok {
		return ""
	}
	return data
}

// UploadRequest is the HTTP upload body: a complete chunked message.
type UploadRequest struct {
	MessageID string            `json:"message_id"`
	Total     uint16            `json:"total"`
	Manifest  string            `json:"manifest"`
	Chunks    map[uint16]string `json:"chunks"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.Publish(req.MessageID, req.Total, req.Manifest, req.Chunks); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	s.log.WithFields(logrus.Fields{
		"message": req.MessageID,
		"chunks":  len(req.Chunks),
	}).Info("message uploaded")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":     "stored",
		"message_id": req.MessageID,
		"chunks":     fmt.Sprintf("%d", len(req.Chunks)),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.store.Stats())
}
