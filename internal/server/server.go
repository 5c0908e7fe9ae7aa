package server

import (
	"net/http"

	"golang.org/x/net/websocket"

	"interview-copilot/internal/archive"
	"interview-copilot/internal/cache"
	"interview-copilot/internal/config"
	"interview-copilot/internal/events"
	"interview-copilot/internal/logging"
	"interview-copilot/internal/session"
	"interview-copilot/internal/summary"
)

// Server is the HTTP surface: the interview websocket endpoint and the
// FAQ/summary admin API.
type Server struct {
	cfg       config.ServerConfig
	deps      session.Deps
	answers   *cache.AnswerCache
	summaries *summary.Service
	archive   *archive.Archive // optional
	seedPath  string
}

// New assembles a server around the process-wide services.
func New(cfg config.ServerConfig, deps session.Deps, answers *cache.AnswerCache, summaries *summary.Service, arch *archive.Archive, seedPath string) *Server {
	return &Server{
		cfg:       cfg,
		deps:      deps,
		answers:   answers,
		summaries: summaries,
		archive:   arch,
		seedPath:  seedPath,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws/interview/", websocket.Handler(s.handleInterview))
	mux.HandleFunc("/upload-faq", s.handleUploadFAQ)
	mux.HandleFunc("/get-faq-stats", s.handleFAQStats)
	mux.HandleFunc("/clear-faq", s.handleClearFAQ)
	mux.HandleFunc("/reload-faq", s.handleReloadFAQ)
	mux.HandleFunc("/get-summaries", s.handleSummaries)
	mux.HandleFunc("/generate-summaries", s.handleGenerateSummaries)
	mux.HandleFunc("/transcript", s.handleTranscript)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	logging.Infof("listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleInterview services one websocket connection for its lifetime.
func (s *Server) handleInterview(conn *websocket.Conn) {
	defer conn.Close()

	roomID := conn.Request().URL.Query().Get("room")
	if roomID == "" {
		roomID = s.cfg.DefaultRoom
	}

	ctx := conn.Request().Context()
	sess := session.New(s.deps, roomID)

	stream, err := sess.Connect(ctx)
	if err != nil {
		logging.Errorf("session %s: connect failed: %v", sess.ID(), err)
		return
	}
	defer sess.Close()

	logging.Infof("session %s joined room %s", sess.ID(), roomID)

	// Writer: everything addressed to this client flows through its
	// room channel; the channel closes when the session leaves.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for ev := range stream {
			if err := websocket.JSON.Send(conn, ev); err != nil {
				logging.Debugf("session %s: write failed: %v", sess.ID(), err)
				return
			}
		}
	}()

	// Reader: inbound events dispatch into the orchestrator. Malformed
	// payloads are ignored; only a transport error ends the connection.
	for {
		var data []byte
		if err := websocket.Message.Receive(conn, &data); err != nil {
			break
		}
		ev, err := events.Decode(data)
		if err != nil {
			logging.Debugf("session %s: ignoring malformed event: %v", sess.ID(), err)
			continue
		}
		sess.Receive(ctx, ev)
	}

	sess.Close()
	<-writeDone
	logging.Infof("session %s left room %s", sess.ID(), roomID)
}
