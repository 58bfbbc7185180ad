// Package literoom is the render core of an interactive image editor.
//
// # Overview
//
// literoom turns "give me a rendering of asset X at resolution class Y"
// into at-most-one in-flight unit of work, backed by a bounded in-memory
// cache with an optional persistent tier, and executes the pixel work on
// an accelerated compute backend with automatic per-session fallback to a
// pure reference engine.
//
// # Quick Start
//
//	import "github.com/tesla3327/literoom"
//
//	p := literoom.New()
//	defer p.Close()
//
//	p.SetParameters("beach.jpg", adjust.Parameters{Exposure: 0.5})
//	p.RequestRaster("beach.jpg", raster.Thumbnail, sched.Visible,
//	    func() ([]byte, error) { return os.ReadFile("beach.jpg") },
//	    func(h cache.Handle) {
//	        if h == nil {
//	            return // decode or generation failure
//	        }
//	        show(h.Raster())
//	    })
//
// # Architecture
//
// The module is organized leaf-first:
//   - raster: pixel buffers, resolution classes, decode and scale
//   - adjust: the develop-parameter model and the reference engine
//   - compute: backend registry and the adaptive router
//   - compute/wgpu, compute/cpu: accelerated backends
//   - cache, store: bounded memory tier plus persistent blob tier
//   - sched: the priority scheduler
//
// The root package wires them into a Pipeline facade; nothing below it
// imports it back.
package literoom
