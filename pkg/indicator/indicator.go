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

// Package indicator renders loading descriptors as terminal text. Rendering
// is a pure function of the descriptor and an animation frame counter.
package indicator

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/vettingo/vettingo/pkg/loading"
)

var (
	accent = lipgloss.AdaptiveColor{Light: "99", Dark: "141"}
	muted  = lipgloss.AdaptiveColor{Light: "250", Dark: "238"}
	shine  = lipgloss.AdaptiveColor{Light: "245", Dark: "244"}

	spinnerStyle    = lipgloss.NewStyle().Foreground(accent)
	messageStyle    = lipgloss.NewStyle().Bold(true)
	subMessageStyle = lipgloss.NewStyle().Faint(true)
	skeletonStyle   = lipgloss.NewStyle().Foreground(muted)
	shineStyle      = lipgloss.NewStyle().Foreground(shine)
	artStyle        = lipgloss.NewStyle().Foreground(accent)

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 3)

	spinners = map[loading.Size]spinner.Spinner{
		loading.Small:  spinner.MiniDot,
		loading.Medium: spinner.Dot,
		loading.Large:  spinner.Points,
	}
)

// Render draws d at the given animation frame.
func Render(d loading.Descriptor, frame int) string {
	frame = max(frame, 0)

	switch k := d.Kind.(type) {
	case nil, loading.Spinner:
		return renderSpinner(d, frame)
	case loading.Skeleton:
		return stack(renderSkeleton(k, d.Size, frame), d)
	case loading.ThemedData:
		return stack(renderData(d.Size, frame), d)
	case loading.ThemedCharacter:
		return stack(renderCharacter(k, d.Size, frame), d)
	default:
		panic(fmt.Sprintf("indicator: unhandled loading kind %T", k))
	}
}

// Place positions the rendering of d in an area of width x height cells.
// Overlays are centered in the area; full screen overlays fill it without a
// frame. Inline descriptors are returned unchanged.
func Place(d loading.Descriptor, width, height, frame int) string {
	view := Render(d, frame)
	if !d.Overlay() {
		return view
	}

	if !d.FullScreen {
		view = overlayStyle.Render(view)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, view)
}

func messages(d loading.Descriptor) []string {
	var lines []string
	if d.Message != "" {
		lines = append(lines, messageStyle.Render(d.Message))
	}
	if d.SubMessage != "" {
		lines = append(lines, subMessageStyle.Render(d.SubMessage))
	}
	return lines
}

// stack puts the messages under an illustration, both centered.
func stack(art string, d loading.Descriptor) string {
	parts := append([]string{art}, messages(d)...)
	if len(parts) > 1 {
		parts[0] += "\n"
	}
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func renderSpinner(d loading.Descriptor, frame int) string {
	sp, ok := spinners[d.Size]
	if !ok {
		sp = spinner.Dot
	}
	glyph := spinnerStyle.Render(sp.Frames[frame%len(sp.Frames)])

	msgs := messages(d)
	if len(msgs) == 0 {
		return glyph
	}

	line := glyph + " " + msgs[0]
	if len(msgs) > 1 {
		indent := strings.Repeat(" ", lipgloss.Width(glyph)+1)
		line += "\n" + indent + msgs[1]
	}
	return line
}

var skeletonWidths = map[loading.Size]int{
	loading.Small:  16,
	loading.Medium: 28,
	loading.Large:  40,
}

var skeletonRows = map[loading.Size]int{
	loading.Small:  1,
	loading.Medium: 3,
	loading.Large:  5,
}

const shineWidth = 4

func renderSkeleton(k loading.Skeleton, size loading.Size, frame int) string {
	rows := k.Rows
	if rows <= 0 {
		rows = skeletonRows[size]
	}
	width := skeletonWidths[size]

	lines := make([]string, rows)
	for i := range lines {
		w := width
		// last row is shorter, like the end of a paragraph
		if i == rows-1 && rows > 1 {
			w = width * 3 / 5
		}

		pos := (frame + i*2) % (w + shineWidth)
		var b strings.Builder
		for x := 0; x < w; x++ {
			if x >= pos-shineWidth && x < pos {
				b.WriteString(shineStyle.Render("▒"))
			} else {
				b.WriteString(skeletonStyle.Render("░"))
			}
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

var (
	barLevels = []rune("▁▂▃▄▅▆▇█")
	dataBars  = map[loading.Size]int{
		loading.Small:  4,
		loading.Medium: 6,
		loading.Large:  9,
	}
)

// renderData draws a small chart whose bars rise and fall with the frame.
func renderData(size loading.Size, frame int) string {
	n := dataBars[size]

	bars := make([]string, n)
	for i := range bars {
		level := (frame + i*3) % (2 * (len(barLevels) - 1))
		if level >= len(barLevels) {
			level = 2*(len(barLevels)-1) - level
		}
		bars[i] = string(barLevels[level])
	}
	chart := strings.Join(bars, " ")
	inner := lipgloss.Width(chart) + 2

	lines := []string{
		"┌" + strings.Repeat("─", inner) + "┐",
		"│ " + chart + " │",
		"│ " + strings.Repeat("─", inner-2) + " │",
		"└" + strings.Repeat("─", inner) + "┘",
	}
	return artStyle.Render(strings.Join(lines, "\n"))
}

type character struct {
	compact []string
	frames  [][]string
}

const DefaultCharacter = "dog"

var characters = map[string]character{
	"dog": {
		compact: []string{"U・ᴥ・U", "U・ᴥ・U~"},
		frames: [][]string{
			{
				`  /^ ^\  `,
				` / 0 0 \ `,
				` V\ Y /V `,
				`  / - \  `,
				` /    |  `,
				`V__) ||  `,
			},
			{
				`  /^ ^\  `,
				` / 0 0 \ `,
				` V\ Y /V `,
				`  / - \  `,
				` /    |  `,
				`V__) |/  `,
			},
		},
	},
	"cat": {
		compact: []string{"=^.^=", "=^-^="},
		frames: [][]string{
			{
				` /\_/\  `,
				`( o.o ) `,
				` > ^ <  `,
			},
			{
				` /\_/\  `,
				`( -.- ) `,
				` > ^ <  `,
			},
		},
	},
}

func lookupCharacter(name string) character {
	if c, ok := characters[strings.ToLower(name)]; ok {
		return c
	}
	return characters[DefaultCharacter]
}

// Characters lists the names accepted by [loading.ThemedCharacter].
func Characters() []string {
	return []string{"cat", "dog"}
}

func renderCharacter(k loading.ThemedCharacter, size loading.Size, frame int) string {
	c := lookupCharacter(k.Name)
	// characters blink or wag every few frames
	step := (frame / 4) % 2

	if size == loading.Small {
		return artStyle.Render(c.compact[step%len(c.compact)])
	}

	art := artStyle.Render(strings.Join(c.frames[step%len(c.frames)], "\n"))
	if size == loading.Large {
		art = lipgloss.NewStyle().Padding(1, 2).Render(art)
	}
	return art
}
