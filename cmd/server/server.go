package main

import (
	"errors"
	"time"

	"github.com/JaimeStill/smart-ocr/internal/api"
	"github.com/JaimeStill/smart-ocr/internal/config"
	"github.com/JaimeStill/smart-ocr/internal/infrastructure"
	"github.com/JaimeStill/smart-ocr/internal/server"
)

// Server coordinates the gateway subsystems.
type Server struct {
	infra *infrastructure.Infrastructure
	http  server.System
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	handler := api.NewRouter(api.Deps{
		Pipeline: infra.Orchestrator(nil),
		Jobs:     infra.Jobs,
		Storage:  infra.Storage,
		Health:   infra.Health,
		Ready:    infra.Lifecycle,
		Logger:   infra.Logger,
	}, cfg)

	infra.Logger.Info("server initialized", "addr", cfg.Server.Addr(), "storage", cfg.Storage.Backend)

	return &Server{
		infra: infra,
		http:  server.New(&cfg.Server, handler, infra.Logger),
	}, nil
}

// Start connects the backing stores and begins serving.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting server")

	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown stops every subsystem within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	err := s.infra.Lifecycle.Shutdown(timeout)
	return errors.Join(err, s.infra.Close())
}
