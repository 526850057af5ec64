//go:build property
// +build property

package composer

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/textvault/textvault/internal/editor"
	"github.com/textvault/textvault/internal/language"
)

// TestComposerProperties checks that the payload always mirrors the latest
// value of each field, whatever order the edits arrive in.
func TestComposerProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	values := language.Values()

	properties.Property("payload mirrors last write", prop.ForAll(
		func(titles, contents []string, langIdx []int) bool {
			buf := editor.NewBuffer()
			c := New(Options{Surface: buf, Clock: newManualClock(), Sink: &Collector{}})
			defer c.Close()

			want := Draft{Language: language.Default}
			for _, s := range titles {
				c.SetTitle(s)
				want.Title = s
			}
			for _, s := range contents {
				buf.Edit(s)
				want.Content = s
			}
			for _, i := range langIdx {
				if err := c.SelectLanguage(values[i]); err != nil {
					return false
				}
				want.Language = language.MustParse(values[i])
			}

			p := c.Build()
			return p.Draft() == want && buf.Settings().Language == want.Language
		},
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.IntRange(0, len(values)-1)),
	))

	properties.Property("build is pure", prop.ForAll(
		func(title, content string) bool {
			c := New(Options{Clock: newManualClock()})
			defer c.Close()
			c.SetTitle(title)
			c.SetContent(content)

			first := c.Build()
			for i := 0; i < 3; i++ {
				if c.Build() != first {
					return false
				}
			}
			return c.Draft() == first.Draft()
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("closed composer never becomes ready", prop.ForAll(
		func(closeAtMs int) bool {
			clock := newManualClock()
			c := New(Options{Clock: clock})

			clock.Advance(time.Duration(closeAtMs) * time.Millisecond)
			c.Close()
			clock.Advance(time.Hour)

			return !c.Ready() && c.Submit(context.Background()).Status == StatusFailed
		},
		gen.IntRange(0, 1999),
	))

	properties.Property("gate opens exactly at the settle delay", prop.ForAll(
		func(beforeMs int) bool {
			clock := newManualClock()
			c := New(Options{Clock: clock})
			defer c.Close()

			clock.Advance(time.Duration(beforeMs) * time.Millisecond)
			early := c.Ready()
			clock.Advance(DefaultSettleDelay - time.Duration(beforeMs)*time.Millisecond)
			return !early && c.Ready()
		},
		gen.IntRange(0, 1999),
	))

	properties.TestingRun(t)
}
