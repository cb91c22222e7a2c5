// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package windows

import (
	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procFindWindowW         = user32.NewProc("FindWindowW")
	procFindWindowExW       = user32.NewProc("FindWindowExW")
	procSendMessageTimeoutW = user32.NewProc("SendMessageTimeoutW")
	procGetWindowLongW      = user32.NewProc("GetWindowLongW")
	procSetWindowLongW      = user32.NewProc("SetWindowLongW")
	procSetParent           = user32.NewProc("SetParent")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
	procRegisterClassExW    = user32.NewProc("RegisterClassExW")
	procCreateWindowExW     = user32.NewProc("CreateWindowExW")
	procDestroyWindow       = user32.NewProc("DestroyWindow")
	procShowWindow          = user32.NewProc("ShowWindow")
	procDefWindowProcW      = user32.NewProc("DefWindowProcW")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
	procGetDC               = user32.NewProc("GetDC")
	procReleaseDC           = user32.NewProc("ReleaseDC")
	procGetCursorPos        = user32.NewProc("GetCursorPos")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetModuleHandleW    = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetModuleHandleW")

	procSetDIBitsToDevice = gdi32.NewProc("SetDIBitsToDevice")
)

const (
	wsChild      = 0x40000000
	wsPopup      = 0x80000000
	wsOverlapped = 0x00000000
	wsVisible    = 0x10000000

	// GWL_STYLE is -16; passed as the low 32 bits of the argument.
	gwlStyle = 0xFFFFFFF0

	swpNoActivate = 0x0010
	swpNoZOrder   = 0x0004

	swShowNoActivate = 4

	pmRemove = 0x0001

	wmDisplayChange = 0x007E
	wmDestroy       = 0x0002

	// Progman message that makes the desktop spawn a WorkerW window
	// behind the icons.
	spawnWorkerWMsg = 0x052C

	monitorInfoPrimary = 0x0001

	biRGB         = 0
	dibRGBColors  = 0
	vkLeftButton  = 0x01
	vkRightButton = 0x02
	vkMidButton   = 0x04
)

type point struct {
	X, Y int32
}

type rect struct {
	Left, Top, Right, Bottom int32
}

type msg struct {
	HWND    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type wndClassExW struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   uintptr
	Icon       uintptr
	Cursor     uintptr
	Background uintptr
	MenuName   *uint16
	ClassName  *uint16
	IconSm     uintptr
}

type monitorInfoExW struct {
	Size    uint32
	Monitor rect
	Work    rect
	Flags   uint32
	Device  [32]uint16
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}
