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
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind = errors.New("unknown loading kind")
	ErrUnknownSize = errors.New("unknown loading size")
)

// Kind is the presentation hint of a descriptor. The set of kinds is closed:
// only [Spinner], [Skeleton], [ThemedData] and [ThemedCharacter] implement it.
type Kind interface {
	kindName() string
}

// Spinner is an animated spinner.
type Spinner struct{}

// Skeleton is a placeholder block mimicking the content being loaded.
// Rows set to zero lets the size decide.
type Skeleton struct {
	Rows int
}

// ThemedData is the "fetching records" illustration used by data pages.
type ThemedData struct{}

// ThemedCharacter shows one of the Vettingo pets. An empty Name falls back
// to the default character.
type ThemedCharacter struct {
	Name string
}

func (Spinner) kindName() string         { return "spinner" }
func (Skeleton) kindName() string        { return "skeleton" }
func (ThemedData) kindName() string      { return "themed-data" }
func (ThemedCharacter) kindName() string { return "themed-character" }

// KindName returns the canonical string form of k.
func KindName(k Kind) string {
	if k == nil {
		return Spinner{}.kindName()
	}
	return k.kindName()
}

// ParseKind parses the string forms accepted in config files and the CLI.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "spinner":
		return Spinner{}, nil
	case "skeleton":
		return Skeleton{}, nil
	case "data", "themed-data":
		return ThemedData{}, nil
	case "character", "themed-character":
		return ThemedCharacter{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

type Size int

const (
	Small Size = iota
	Medium
	Large
)

func (s Size) String() string {
	switch s {
	case Small:
		return "small"
	case Large:
		return "large"
	default:
		return "medium"
	}
}

// ParseSize accepts both the short (sm, md, lg) and long forms.
func ParseSize(s string) (Size, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sm", "small":
		return Small, nil
	case "", "md", "medium":
		return Medium, nil
	case "lg", "large":
		return Large, nil
	}
	return Medium, fmt.Errorf("%w: %q", ErrUnknownSize, s)
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Size) UnmarshalText(text []byte) error {
	v, err := ParseSize(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Descriptor is the state of one named loading operation.
//
// Descriptors are plain values and compare with ==.
type Descriptor struct {
	Key        string
	IsLoading  bool
	Kind       Kind
	Message    string
	SubMessage string
	Size       Size
	Inline     bool
	FullScreen bool

	// Priority decides which overlay is shown when several are active.
	Priority int
}

// Overlay reports whether d is rendered above the page rather than in the
// document flow.
func (d Descriptor) Overlay() bool {
	return d.FullScreen || !d.Inline
}

// DefaultDescriptor holds the values every started descriptor begins with.
var DefaultDescriptor = Descriptor{
	Kind: Spinner{},
	Size: Medium,
}

type jsonDescriptor struct {
	Key        string `json:"key"`
	IsLoading  bool   `json:"isLoading"`
	Kind       string `json:"kind"`
	Rows       int    `json:"rows,omitempty"`
	Character  string `json:"character,omitempty"`
	Message    string `json:"message,omitempty"`
	SubMessage string `json:"subMessage,omitempty"`
	Size       Size   `json:"size"`
	Inline     bool   `json:"inline"`
	FullScreen bool   `json:"fullScreen"`
	Priority   int    `json:"priority"`
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	jd := jsonDescriptor{
		Key:        d.Key,
		IsLoading:  d.IsLoading,
		Kind:       KindName(d.Kind),
		Message:    d.Message,
		SubMessage: d.SubMessage,
		Size:       d.Size,
		Inline:     d.Inline,
		FullScreen: d.FullScreen,
		Priority:   d.Priority,
	}

	switch k := d.Kind.(type) {
	case Skeleton:
		jd.Rows = k.Rows
	case ThemedCharacter:
		jd.Character = k.Name
	}

	return json.Marshal(jd)
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	jd := jsonDescriptor{Size: Medium}
	if err := json.Unmarshal(data, &jd); err != nil {
		return err
	}

	kind, err := ParseKind(jd.Kind)
	if err != nil {
		return err
	}
	switch kind.(type) {
	case Skeleton:
		kind = Skeleton{Rows: jd.Rows}
	case ThemedCharacter:
		kind = ThemedCharacter{Name: jd.Character}
	}

	*d = Descriptor{
		Key:        jd.Key,
		IsLoading:  jd.IsLoading,
		Kind:       kind,
		Message:    jd.Message,
		SubMessage: jd.SubMessage,
		Size:       jd.Size,
		Inline:     jd.Inline,
		FullScreen: jd.FullScreen,
		Priority:   jd.Priority,
	}
	return nil
}

// Option changes one field of a descriptor. Options passed to Start are
// applied over the registry defaults; options passed to Update are merged
// into the current descriptor and leave every other field untouched.
type Option func(*Descriptor)

func WithKind(k Kind) Option {
	return func(d *Descriptor) {
		if k != nil {
			d.Kind = k
		}
	}
}

func WithMessage(msg string) Option {
	return func(d *Descriptor) { d.Message = msg }
}

func WithSubMessage(msg string) Option {
	return func(d *Descriptor) { d.SubMessage = msg }
}

func WithSize(s Size) Option {
	return func(d *Descriptor) { d.Size = s }
}

func WithInline(inline bool) Option {
	return func(d *Descriptor) { d.Inline = inline }
}

func WithFullScreen(fullScreen bool) Option {
	return func(d *Descriptor) { d.FullScreen = fullScreen }
}

func WithPriority(p int) Option {
	return func(d *Descriptor) { d.Priority = p }
}

func apply(d Descriptor, opts []Option) Descriptor {
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	return d
}
