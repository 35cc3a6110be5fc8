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

package loading

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"":                 Spinner{},
		"spinner":          Spinner{},
		"Skeleton":         Skeleton{},
		"data":             ThemedData{},
		"themed-data":      ThemedData{},
		" character ":      ThemedCharacter{},
		"themed-character": ThemedCharacter{},
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("hourglass")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseSize(t *testing.T) {
	for in, want := range map[string]Size{
		"sm": Small, "small": Small,
		"md": Medium, "medium": Medium, "": Medium,
		"lg": Large, "LARGE": Large,
	} {
		got, err := ParseSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSize("xl")
	assert.ErrorIs(t, err, ErrUnknownSize)
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "spinner", KindName(nil))
	assert.Equal(t, "skeleton", KindName(Skeleton{Rows: 2}))
	assert.Equal(t, "themed-data", KindName(ThemedData{}))
	assert.Equal(t, "themed-character", KindName(ThemedCharacter{Name: "cat"}))
}

func TestDescriptorOverlay(t *testing.T) {
	assert.True(t, Descriptor{}.Overlay())
	assert.False(t, Descriptor{Inline: true}.Overlay())
	assert.True(t, Descriptor{Inline: true, FullScreen: true}.Overlay())
}

func TestDescriptorJSON(t *testing.T) {
	d := Descriptor{
		Key:       "checkout",
		IsLoading: true,
		Kind:      ThemedCharacter{Name: "cat"},
		Message:   "Processing payment",
		Size:      Large,
		Priority:  10,
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "themed-character", raw["kind"])
	assert.Equal(t, "cat", raw["character"])
	assert.Equal(t, "large", raw["size"])
	assert.NotContains(t, raw, "subMessage")

	var back Descriptor
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)

	t.Run("missing size defaults to medium", func(t *testing.T) {
		var d Descriptor
		require.NoError(t, json.Unmarshal([]byte(`{"key":"k","kind":"skeleton","rows":3}`), &d))
		assert.Equal(t, Medium, d.Size)
		assert.Equal(t, Skeleton{Rows: 3}, d.Kind)
	})

	t.Run("unknown kind", func(t *testing.T) {
		var d Descriptor
		err := json.Unmarshal([]byte(`{"key":"k","kind":"hourglass"}`), &d)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}
