// Package composer implements the paste composition state machine.
//
// A Composer owns one draft (title, language, content) and one readiness
// gate. It is created when a page (or CLI run) mounts and closed when it is
// torn down:
//
//	c := composer.New(composer.Options{Surface: surface, Theme: signal, Sink: sink})
//	defer c.Close()
//
//	c.SetTitle("Hello")
//	c.SelectLanguage("go")
//	surface.Edit("package main") // content arrives through the surface
//
//	outcome := c.Submit(ctx)
//
// # State
//
// Setters never validate and never fail; each one emits a render
// notification. Content is only ever set from the editor surface's change
// notifications and is stored exactly as delivered.
//
// # Readiness
//
// The Gate starts in Loading and moves to Ready once, after the settling
// delay or, when enabled, on the surface's own ready signal. Closing the
// composer cancels the pending transition.
//
// # Submission
//
// Build copies the draft into a Payload and has no side effects. Submit
// builds, optionally validates, and hands the payload to a Sink, reporting
// the result as an Outcome rather than an error.
package composer
