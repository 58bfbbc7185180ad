// Command literoom-demo renders an image through the literoom pipeline.
package main

import (
	"flag"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/tesla3327/literoom"
	"github.com/tesla3327/literoom/adjust"
	"github.com/tesla3327/literoom/cache"
	"github.com/tesla3327/literoom/raster"
	"github.com/tesla3327/literoom/sched"
	"github.com/tesla3327/literoom/store"
)

func main() {
	var (
		input      = flag.String("input", "", "input image (png/jpeg/gif/bmp/tiff/webp)")
		output     = flag.String("output", "out.png", "output file")
		class      = flag.String("class", "preview", "resolution class: thumbnail, preview, full")
		cacheDir   = flag.String("cache-dir", "", "persistent cache directory (empty = memory only)")
		exposure   = flag.Float64("exposure", 0, "exposure in stops")
		contrast   = flag.Float64("contrast", 0, "contrast, -100..100")
		saturation = flag.Float64("saturation", 0, "saturation, -100..100")
		vibrance   = flag.Float64("vibrance", 0, "vibrance, -100..100")
		rotate     = flag.Int("rotate", 0, "clockwise quarter turns")
		verbose    = flag.Bool("v", false, "log pipeline activity")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("missing -input")
	}
	if *verbose {
		literoom.SetLogger(slog.Default())
	}

	var opts []literoom.Option
	if *cacheDir != "" {
		fs, err := store.NewFSStore(*cacheDir)
		if err != nil {
			log.Fatalf("Failed to open cache dir: %v", err)
		}
		opts = append(opts, literoom.WithBlobStore(fs))
	}
	p := literoom.New(opts...)
	defer p.Close()

	p.SetParameters(*input, adjust.Parameters{
		Exposure:    *exposure,
		Contrast:    *contrast,
		Saturation:  *saturation,
		Vibrance:    *vibrance,
		RotateTurns: *rotate,
	})

	done := make(chan cache.Handle, 1)
	p.RequestRaster(*input, parseClass(*class), sched.Visible,
		func() ([]byte, error) { return os.ReadFile(*input) },
		func(h cache.Handle) { done <- h })

	h := <-done
	if h == nil {
		log.Fatalf("Failed to render %s", *input)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	if err := png.Encode(f, h.Raster().ToImage()); err != nil {
		log.Fatalf("Failed to encode: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	log.Printf("Rendered %s -> %s (%dx%d, accelerated=%v)\n",
		*input, *output, h.Raster().Width(), h.Raster().Height(), p.Accelerated())
	log.Printf("Cache: %s\n", p.Stats())
}

func parseClass(name string) raster.ResolutionClass {
	switch name {
	case "thumbnail":
		return raster.Thumbnail
	case "preview":
		return raster.Preview
	case "full":
		return raster.Full
	default:
		log.Fatalf("Unknown resolution class %q", name)
		return raster.Full
	}
}
