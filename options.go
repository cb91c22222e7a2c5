package livewall

import "github.com/gogpu/gpucontext"

// Option configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Default: wallpaper on the primary output
//	eng, err := livewall.New(b)
//
//	// Span every connected output
//	eng, err := livewall.New(b, livewall.WithTarget(livewall.TargetAll()))
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	policy   TargetPolicy
	provider gpucontext.DeviceProvider
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		policy: TargetPrimary(),
	}
}

// WithTarget sets the initial output-selection policy. The policy can
// be replaced at runtime with Engine.SetTarget.
func WithTarget(p TargetPolicy) Option {
	return func(o *engineOptions) {
		o.policy = p
	}
}

// WithDeviceProvider attaches the host application's GPU device so the
// shared canvas can keep a texture mirror. The engine never creates a
// device of its own; without a provider presentation stays on the CPU
// path.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *engineOptions) {
		o.provider = p
	}
}
