// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package windows implements the wallpaper backend for Windows
// desktops. Wallpaper windows are reparented under the WorkerW window
// that Progman spawns behind the desktop icons, one per monitor, and
// frames are presented with GDI. On other platforms the package is
// empty and registers nothing.
package windows
