// Package internal contains the implementation packages for textvault.
//
// # Package Organization
//
//   - language: the closed table of syntax-highlighting languages
//   - theme: light/dark mode and the theme signal the composer follows
//   - editor: the editor surface boundary and its adapters (in-process
//     buffer, browser mirror, fsnotify-watched file)
//   - composer: form state, the editor readiness gate and the submission
//     builder
//   - vault: HTTP sink delivering payloads to the TextVault backend
//   - session: one composer per browser page, with throttled inbound events
//   - server: composer page, websocket session channel and JSON API
//   - config: viper-backed configuration with validation
//   - logging, errors: structured logging and typed errors shared by all
//   - di: service wiring for the commands
//   - version: build metadata
//
// # Inter-Package Communication
//
// The composer owns the draft and never reaches outward except through its
// Surface, its theme Source and its Sink. A session binds those to a browser
// page: the Remote surface turns configuration into outbound commands and
// inbound edits into change notifications. The server only moves frames
// between the websocket and the session.
package internal
