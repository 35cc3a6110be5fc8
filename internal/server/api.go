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

package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vettingo/vettingo/pkg/loading"
	"github.com/vettingo/vettingo/pkg/logging"
)

var log = logging.GetLogger("API")

// LoadingState is the body of GET /api/loading.
type LoadingState struct {
	Active  []loading.Descriptor `json:"active"`
	Overlay *loading.Descriptor  `json:"overlay"`
}

type errorBody struct {
	Error string `json:"error"`
}

type api struct {
	reg *loading.Registry
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encoding response", "err", err)
	}
}

func (a api) listLoading(w http.ResponseWriter, _ *http.Request) {
	state := LoadingState{Active: a.reg.Active()}
	if d, ok := a.reg.Overlay(); ok {
		state.Overlay = &d
	}
	writeJSON(w, http.StatusOK, state)
}

func (a api) getOverlay(w http.ResponseWriter, _ *http.Request) {
	d, ok := a.reg.Overlay()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a api) getLoading(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	d, ok := a.reg.Get(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not loading"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}
