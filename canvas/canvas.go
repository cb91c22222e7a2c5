// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package canvas holds the single shared off-screen image that spans
// the bounding rectangle of all selected, ready outputs. The *Canvas
// value is the stable image handle the renderer binds to: it never
// changes identity across resizes, only its backing pixel buffer does,
// and resizes happen only at generation boundaries inside the engine
// tick.
package canvas

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"github.com/gogpu/gpucontext"
)

// Canvas errors.
var (
	// ErrClosed is returned when operations are attempted on a closed
	// canvas.
	ErrClosed = errors.New("canvas: closed")

	// ErrInvalidDimensions is returned when width or height is not
	// positive.
	ErrInvalidDimensions = errors.New("canvas: invalid dimensions")
)

// textureDestroyer matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// Canvas wraps a gg.Context as the shared wallpaper image. The
// compositor reads its pixels at present time; the renderer draws into
// it through Draw.
//
// Canvas is NOT safe for concurrent use. The engine owns it and
// resizes it; renderer access happens in the same scheduling context.
type Canvas struct {
	ctx         *gg.Context
	provider    gpucontext.DeviceProvider
	texture     any  // lazy GPU mirror (*gogpu.Texture once realized)
	oldTexture  any  // previous texture awaiting deferred destruction
	dirty       bool // pixels changed since last Flush
	sizeChanged bool // texture must be recreated
	width       int
	height      int
	closed      bool
}

// New creates the shared canvas at an initial size. The engine resizes
// it once the first surface configuration arrives, so the initial size
// is a placeholder; it must still be positive because gg contexts
// reject empty dimensions.
func New(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	return &Canvas{
		ctx:    gg.NewContext(width, height),
		width:  width,
		height: height,
		dirty:  true,
	}, nil
}

// SetDeviceProvider attaches the host application's GPU device for the
// optional texture mirror. The canvas never creates a device of its
// own; without a provider Flush keeps returning a pending placeholder
// and CPU presentation is unaffected.
func (c *Canvas) SetDeviceProvider(p gpucontext.DeviceProvider) {
	if c.closed {
		return
	}
	c.provider = p
	_ = gg.SetAcceleratorDeviceProvider(p)
}

// Context returns the gg drawing context, or nil when closed.
func (c *Canvas) Context() *gg.Context {
	if c.closed {
		return nil
	}
	return c.ctx
}

// Size returns the current canvas dimensions.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// Draw binds the canvas as the render destination for fn. It is the
// expected way for a wallpaper-targeted renderer to update content: fn
// receives the shared gg context, and the canvas is flagged dirty for
// the GPU mirror.
func (c *Canvas) Draw(fn func(*gg.Context)) error {
	if c.closed {
		return ErrClosed
	}
	fn(c.ctx)
	c.dirty = true
	return nil
}

// MarkDirty flags the canvas for GPU upload on the next Flush. Use it
// after drawing through Context directly instead of Draw.
func (c *Canvas) MarkDirty() {
	c.dirty = true
}

// Resize changes the canvas extent while preserving the handle's
// identity. The engine calls it only when the canvas generation
// advanced; a same-size call is a no-op, so the per-tick path stays
// cheap.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if c.width == width && c.height == height {
		return nil
	}
	if err := c.ctx.Resize(width, height); err != nil {
		return fmt.Errorf("canvas: resize failed: %w", err)
	}
	c.width = width
	c.height = height
	c.sizeChanged = true
	c.dirty = true
	return nil
}

// RGBA returns the canvas pixels as an image.RGBA view over the gg
// pixmap's backing array. No pixels are copied; the view is valid
// until the next Resize. Present-time cropping slices this view.
func (c *Canvas) RGBA() *image.RGBA {
	if c.closed {
		return nil
	}
	_ = c.ctx.FlushGPU()
	pm := c.ctx.ResizeTarget()
	return &image.RGBA{
		Pix:    pm.Data(),
		Stride: c.width * 4,
		Rect:   image.Rect(0, 0, c.width, c.height),
	}
}

// Flush uploads the canvas content to the GPU texture mirror if dirty
// and returns the texture. The texture is created lazily: until a
// TextureCreator materializes it (see Realize) the returned value is a
// pending placeholder carrying the pixel data.
func (c *Canvas) Flush() (any, error) {
	if c.closed {
		return nil, ErrClosed
	}

	// A stale texture may still be referenced by in-flight GPU work;
	// keep it until Realize runs after the next upload wait.
	if c.sizeChanged {
		if c.texture != nil {
			if c.oldTexture != nil {
				if d, ok := c.oldTexture.(textureDestroyer); ok {
					d.Destroy()
				}
			}
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.sizeChanged = false
	}

	if !c.dirty && c.texture != nil {
		return c.texture, nil
	}

	_ = c.ctx.FlushGPU()
	data := c.ctx.ResizeTarget().Data()

	if c.texture == nil {
		c.texture = &pendingTexture{width: c.width, height: c.height, data: data}
		c.dirty = false
		return c.texture, nil
	}

	if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(data); err != nil {
			return nil, fmt.Errorf("canvas: texture update failed: %w", err)
		}
	}
	c.dirty = false
	return c.texture, nil
}

// Realize turns a pending texture placeholder into a real GPU texture
// using the given creator. It is called by hosts that mirror the
// wallpaper into their own GPU scene. No-op when the texture is
// already real or was never flushed.
func (c *Canvas) Realize(creator gpucontext.TextureCreator) error {
	if c.closed {
		return ErrClosed
	}
	pending, ok := c.texture.(*pendingTexture)
	if !ok {
		return nil
	}
	tex, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
	if err != nil {
		return fmt.Errorf("canvas: texture creation failed: %w", err)
	}
	// gg pixmap data is premultiplied alpha.
	if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
		pt.SetPremultiplied(true)
	}
	c.texture = tex
	if c.oldTexture != nil {
		if d, ok := c.oldTexture.(textureDestroyer); ok {
			d.Destroy()
		}
		c.oldTexture = nil
	}
	return nil
}

// Texture returns the current GPU mirror without flushing. Nil until
// the first Flush.
func (c *Canvas) Texture() any {
	return c.texture
}

// Provider returns the attached DeviceProvider, nil when unset or
// closed.
func (c *Canvas) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}

// Close releases the canvas. Idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.oldTexture != nil {
		if d, ok := c.oldTexture.(textureDestroyer); ok {
			d.Destroy()
		}
		c.oldTexture = nil
	}
	if c.texture != nil {
		if d, ok := c.texture.(textureDestroyer); ok {
			d.Destroy()
		}
		c.texture = nil
	}
	if c.ctx != nil {
		_ = c.ctx.Close()
		c.ctx = nil
	}
	c.provider = nil
	return nil
}

// pendingTexture holds pixel data for deferred texture creation, used
// until a TextureCreator is available.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}
