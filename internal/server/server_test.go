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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vettingo/vettingo/pkg/loading"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestListLoading(t *testing.T) {
	reg := loading.New()
	h := NewHandler(reg, true)

	rec := get(t, h, "/api/loading")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty LoadingState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	assert.Empty(t, empty.Active)
	assert.Nil(t, empty.Overlay)

	reg.Start("pets-page", loading.WithKind(loading.ThemedData{}), loading.WithInline(true))
	reg.Start("checkout", loading.WithFullScreen(true), loading.WithPriority(10))

	rec = get(t, h, "/api/loading")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var state LoadingState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Len(t, state.Active, 2)
	assert.Equal(t, "pets-page", state.Active[0].Key)
	assert.Equal(t, loading.ThemedData{}, state.Active[0].Kind)
	require.NotNil(t, state.Overlay)
	assert.Equal(t, "checkout", state.Overlay.Key)
}

func TestGetLoading(t *testing.T) {
	reg := loading.New()
	h := NewHandler(reg, true)
	reg.Start("vet-search", loading.WithKind(loading.Skeleton{Rows: 3}), loading.WithMessage("Searching"))

	rec := get(t, h, "/api/loading/vet-search")
	require.Equal(t, http.StatusOK, rec.Code)

	var d loading.Descriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.True(t, d.IsLoading)
	assert.Equal(t, loading.Skeleton{Rows: 3}, d.Kind)
	assert.Equal(t, "Searching", d.Message)

	rec = get(t, h, "/api/loading/billing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not loading"}`, rec.Body.String())
}

func TestGetOverlay(t *testing.T) {
	reg := loading.New()
	h := NewHandler(reg, true)

	reg.Start("pets-page", loading.WithInline(true))
	assert.Equal(t, http.StatusNoContent, get(t, h, "/api/overlay").Code)

	reg.Start("dashboard")
	rec := get(t, h, "/api/overlay")
	require.Equal(t, http.StatusOK, rec.Code)

	var d loading.Descriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "dashboard", d.Key)
}

func TestKeyNamedOverlay(t *testing.T) {
	reg := loading.New()
	h := NewHandler(reg, true)
	reg.Start("overlay", loading.WithInline(true), loading.WithMessage("Loading overlays"))

	rec := get(t, h, "/api/loading/overlay")
	require.Equal(t, http.StatusOK, rec.Code)

	var d loading.Descriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "overlay", d.Key)
	assert.Equal(t, "Loading overlays", d.Message)

	// inline, so there is no overlay to show
	assert.Equal(t, http.StatusNoContent, get(t, h, "/api/overlay").Code)
}

func TestIndex(t *testing.T) {
	reg := loading.New()
	reg.Start("pets-page", loading.WithInline(true), loading.WithMessage("Fetching <pets>"))
	reg.Start("dashboard", loading.WithKind(loading.Skeleton{}))

	rec := get(t, NewHandler(reg, true), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "2 operations in progress")
	assert.Contains(t, body, "<td>skeleton</td>")
	assert.Contains(t, body, "<td>inline</td>")
	assert.Contains(t, body, "Fetching &lt;pets&gt;")
	assert.Contains(t, body, `<tr class="overlay">`)
}
