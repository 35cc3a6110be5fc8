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

// Package simulate drives Vettingo page loads through a loading registry so
// the dashboard and the inspector have something to show. Pages only start,
// update and stop their loading state; no data is fetched.
package simulate

import (
	"context"
	"time"

	"github.com/vettingo/vettingo/pkg/config"
	"github.com/vettingo/vettingo/pkg/loading"
	"github.com/vettingo/vettingo/pkg/logging"
	"github.com/vettingo/vettingo/pkg/manager"
)

var log = logging.GetLogger("SIMU")

const defaultDuration = 2 * time.Second

// Page repeatedly loads one page until stopped.
type Page struct {
	reg   *loading.Registry
	cfg   config.PageConfig
	opts  []loading.Option
	pause time.Duration

	// Loads counts the completed loads.
	Loads int
}

func NewPage(reg *loading.Registry, cfg config.PageConfig, pause time.Duration) (*Page, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if cfg.Duration <= 0 {
		cfg.Duration = defaultDuration
	}

	return &Page{
		reg:   reg,
		cfg:   cfg,
		opts:  opts,
		pause: pause,
	}, nil
}

func (p *Page) Key() string {
	return p.cfg.Key
}

// Load runs one load of the page: start, one update per step, stop. The
// loading state is stopped even when ctx is cancelled.
func (p *Page) Load(ctx context.Context) error {
	h := p.reg.Start(p.cfg.Key, p.opts...)
	defer h.Stop()

	steps := p.cfg.Steps
	if len(steps) == 0 {
		steps = []string{""}
	}
	per := p.cfg.Duration / time.Duration(len(steps))

	for _, step := range steps {
		if step != "" {
			h.Update(loading.WithSubMessage(step))
		}
		if err := sleep(ctx, per); err != nil {
			log.Debug("page load interrupted", "page", p.cfg.Key)
			return err
		}
	}

	p.Loads++
	return nil
}

func (p *Page) Run(um manager.UnitManager) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-um.ShouldStop():
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Debug("simulating page", "page", p.cfg.Key)
	for {
		if err := p.Load(ctx); err != nil {
			break
		}
		if err := sleep(ctx, p.pause); err != nil {
			break
		}
	}
	um.Done()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pages builds one simulated page per configured demo page.
func Pages(reg *loading.Registry, cfg config.DemoConfig) ([]*Page, error) {
	pages := make([]*Page, 0, len(cfg.Pages))
	for _, pc := range cfg.Pages {
		p, err := NewPage(reg, pc, cfg.Pause)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}
