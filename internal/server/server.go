//
//  Copyright (c) 2025 Vettingo contributors.
//  All rights reserved.
//
//  SPDX-License-Identifier: AGPL-3.0-or-later
//
//  This file is part of Vettingo.
//
//  Vettingo is free software: you can redistribute it and/or modify
//  it under the terms of the GNU Affero General Public License as
//  published by the Free Software Foundation, either version 3 of the
//  License, or (at your option) any later version.
//
//  Vettingo is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU Affero General Public License for more details.
//
//  You should have received a copy of the GNU Affero General Public License
//  along with Vettingo.  If not, see <http://www.gnu.org/licenses/>.
//

// Package server exposes a read-only view of a loading registry, as JSON and
// as an HTML page, used to inspect which operations are in progress from
// outside the process.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vettingo/vettingo/pkg/loading"
	"github.com/vettingo/vettingo/pkg/manager"
)

const shutdownTimeout = 5 * time.Second

// Inspector serves the registry state over HTTP. It runs as a manager unit.
type Inspector struct {
	http.Handler
	Addr string
}

// NewHandler builds the inspector routes for reg. Request logging is
// disabled in TUI mode since the dashboard owns the terminal.
func NewHandler(reg *loading.Registry, tuiMode bool) http.Handler {
	router := chi.NewRouter()
	if !tuiMode {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Recoverer)

	a := api{reg: reg}
	apiRoute := chi.NewRouter()
	apiRoute.Get("/loading", a.listLoading)
	apiRoute.Get("/overlay", a.getOverlay)
	apiRoute.Get("/loading/{key}", a.getLoading)
	router.Mount("/api", apiRoute)

	router.Get("/", a.indexView)

	return router
}

func NewInspector(reg *loading.Registry, addr string, tuiMode bool) *Inspector {
	return &Inspector{
		Handler: NewHandler(reg, tuiMode),
		Addr:    addr,
	}
}

func (s *Inspector) Run(m manager.UnitManager) {
	server := &http.Server{
		Addr:         s.Addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		Handler:      s.Handler,
	}

	failed := make(chan error, 1)
	go func() {
		log.Info("inspector listening", "addr", s.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		m.Panic(fmt.Errorf("inspector: %w", err))
		return
	case <-m.ShouldStop():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("inspector shutdown", "err", err)
	}
	m.Done()
}
