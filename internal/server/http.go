package server

import (
	"time"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/client"
	"resumecanvas/internal/config"
	"resumecanvas/internal/editor"
	resumecanvasErrors "resumecanvas/internal/errors"
	"resumecanvas/internal/export"
)

// CreateSessionRequest opens an editor session, either from a backend
// document ID or from an inline document
type CreateSessionRequest struct {
	ID   string           `json:"id,omitempty"`
	Data *canvas.Document `json:"data,omitempty"`
}

// CreateSessionResponse carries the new session identifier
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// OpRequest represents one editor operation applied to a session
type OpRequest struct {
	Op        string          `json:"op"`
	ID        string          `json:"id,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Content   string          `json:"content,omitempty"`
	Color     string          `json:"color,omitempty"`
	ListStyle string          `json:"listType,omitempty"`
	Pointer   *editor.Pointer `json:"pointer,omitempty"`
}

// SessionResponse is the wire form of the editor session state
type SessionResponse struct {
	SessionID   string          `json:"sessionId"`
	Document    canvas.Document `json:"document"`
	State       string          `json:"state"`
	SelectedID  string          `json:"selectedId,omitempty"`
	SelectedIDs []string        `json:"selectedIds,omitempty"`
	GroupSelect bool            `json:"groupSelect"`
	DraggingID  string          `json:"draggingId,omitempty"`
	Editing     bool            `json:"editing"`
	Scratch     string          `json:"scratch,omitempty"`
	Zoom        int             `json:"zoom"`
	ShowGrid    bool            `json:"showGrid"`
	Unsaved     bool            `json:"unsaved"`
	Saving      bool            `json:"saving"`
}

// ShareResponse carries a generated share link
type ShareResponse struct {
	URL string `json:"url"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate hot reload
	CertReloader *CertReloader

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Editor sessions and domain services
	Sessions *SessionStore
	Backend  *client.Client
	Exports  *export.Registry

	// Logger
	Logger *resumecanvasErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	SessionTTL     time.Duration
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *resumecanvasErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Sessions:       NewSessionStore(cfg.SessionTTL, logger),
		Backend:        client.NewClient(&appCfg.Backend, logger),
		Exports: export.NewRegistry(export.Options{
			Title:  appCfg.Export.Title,
			Author: appCfg.Export.Author,
		}),
		Logger: logger,
	}
}

// sessionResponse builds the wire form of a session snapshot
func sessionResponse(sid string, snap editor.Snapshot) SessionResponse {
	return SessionResponse{
		SessionID:   sid,
		Document:    snap.Document,
		State:       string(snap.State),
		SelectedID:  snap.SelectedID,
		SelectedIDs: snap.SelectedIDs,
		GroupSelect: snap.GroupSelect,
		DraggingID:  snap.DraggingID,
		Editing:     snap.Editing,
		Scratch:     snap.Scratch,
		Zoom:        snap.Zoom,
		ShowGrid:    snap.ShowGrid,
		Unsaved:     snap.Unsaved,
		Saving:      snap.Saving,
	}
}
