package server

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/textvault/textvault/internal/language"
	"github.com/textvault/textvault/internal/theme"
)

// PageData is what the composer page is rendered from.
type PageData struct {
	Languages []language.Entry
	Selected  language.Tag
	Theme     theme.Mode
	// SettleDelayMs is shown to scripts that want to mirror the gate.
	SettleDelayMs int64
}

// ComposerPage renders the full composer page. The editor region starts
// covered by the loading placeholder; the page script lifts it when the
// session reports ready.
func ComposerPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en" data-theme="%s">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>TextVault</title>
<link rel="stylesheet" href="/static/composer.css">
</head>
<body class="theme-%s">
<main id="composer" data-settle-delay="%s">
<header class="toolbar">
<input id="title" name="title" type="text" placeholder="Title" autocomplete="off">
`, templ.EscapeString(data.Theme.String()), templ.EscapeString(data.Theme.String()),
			strconv.FormatInt(data.SettleDelayMs, 10)); err != nil {
			return err
		}

		if err := LanguageSelect(data.Languages, data.Selected).Render(ctx, w); err != nil {
			return err
		}
		if err := ThemeToggle(data.Theme).Render(ctx, w); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<button id="submit" type="button">Save</button>
</header>
`); err != nil {
			return err
		}

		if err := EditorRegion().Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, `<section id="outcome" aria-live="polite"></section>
</main>
<script src="https://cdn.jsdelivr.net/npm/monaco-editor@0.52.2/min/vs/loader.js"></script>
<script src="/static/composer.js"></script>
</body>
</html>
`)
		return err
	})
}

// LanguageSelect renders the language selector. Option values are the table
// values; the labels are display text only.
func LanguageSelect(entries []language.Entry, selected language.Tag) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<select id="language" name="language">`+"\n"); err != nil {
			return err
		}
		for _, e := range entries {
			attr := ""
			if e.Tag == selected {
				attr = " selected"
			}
			if _, err := fmt.Fprintf(w, `<option value="%s"%s>%s</option>`+"\n",
				templ.EscapeString(e.Tag.String()), attr, templ.EscapeString(e.Label)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</select>\n")
		return err
	})
}

// ThemeToggle renders the light/dark switch. It names the mode it switches to.
func ThemeToggle(current theme.Mode) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		next := current.Toggle()
		_, err := fmt.Fprintf(w, `<button id="theme" type="button" data-theme="%s">%s</button>`+"\n",
			templ.EscapeString(next.String()), templ.EscapeString(next.Label()))
		return err
	})
}

// EditorRegion renders the editor mount point under the loading placeholder.
func EditorRegion() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section id="editor-region">
<div id="placeholder" class="placeholder">Loading editor...</div>
<div id="editor" class="editor" aria-hidden="true"></div>
</section>
`)
		return err
	})
}
