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
	"embed"
	"html/template"
	"net/http"

	"github.com/vettingo/vettingo/pkg/loading"
)

//go:embed templates/*.html
var Templates embed.FS

// seconds between page reloads
const refreshInterval = 2

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"kindName":  loading.KindName,
	"placement": Placement,
}).ParseFS(Templates, "templates/*.html"))

type indexContext struct {
	Active     []loading.Descriptor
	OverlayKey string
	Refresh    int
}

// Placement names where d is drawn on the page.
func Placement(d loading.Descriptor) string {
	switch {
	case d.FullScreen:
		return "full screen"
	case d.Overlay():
		return "overlay"
	default:
		return "inline"
	}
}

func (a api) indexView(w http.ResponseWriter, _ *http.Request) {
	ctx := indexContext{
		Active:  a.reg.Active(),
		Refresh: refreshInterval,
	}
	if d, ok := a.reg.Overlay(); ok {
		ctx.OverlayKey = d.Key
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "index.html", ctx); err != nil {
		log.Error("rendering index", "err", err)
	}
}
