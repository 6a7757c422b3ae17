// Package internal contains the implementation packages of partials.
//
// # Package Organization
//
//   - tag: HTML element building with escaping and optional sanitizing
//   - view: Per-render helper registry and value stringification
//   - partial: Sections, declarations, and the partial that owns them
//   - renderer: pongo2 template loading and execution over partials
//   - errors: Typed render errors with codes and context
//   - config: Viper-backed configuration with validation
//   - logging: Structured logging on log/slog
//   - watcher: Debounced fsnotify watching of template directories
//   - version: Build information
//
// Dependencies point one way: tag is the leaf, view builds on tag,
// partial on view, and renderer on partial. The cmd package wires
// config, logging, and watcher around the renderer.
package internal
