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

package logging

import (
	"bytes"
	"sync"
)

// TailBuffer keeps the last n complete lines written to it. It is used as
// the log output while the dashboard owns the terminal.
type TailBuffer struct {
	mu      sync.RWMutex
	partial bytes.Buffer
	lines   []string
	n       int
}

func NewTailBuffer(n int) *TailBuffer {
	return &TailBuffer{n: max(n, 1)}
}

// Lines returns a copy of the buffered lines, oldest first.
func (t *TailBuffer) Lines() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial.Write(p)
	for {
		data := t.partial.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}

		line := string(data[:i])
		t.partial.Next(i + 1)
		if line == "" {
			continue
		}

		t.lines = append(t.lines, line)
		if len(t.lines) > t.n {
			t.lines = t.lines[len(t.lines)-t.n:]
		}
	}

	return len(p), nil
}
