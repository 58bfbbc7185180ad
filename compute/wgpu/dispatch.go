package wgpu

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/tesla3327/literoom/adjust"
	"github.com/tesla3327/literoom/compute"
	"github.com/tesla3327/literoom/raster"
)

// gpuTimeout bounds the completion wait on a dispatch.
const gpuTimeout = 5 * time.Second

// ApplyAdjustments runs the chain on the GPU: load pass applies the
// global chain and tone curve, one pass per enabled mask, store pass
// quantizes. One submit and one completion wait for the whole sequence.
func (b *Backend) ApplyAdjustments(r *raster.Raster, p adjust.Parameters) (*raster.Raster, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.gpuReady {
		return nil, compute.ErrFallbackToCPU
	}

	w, h := uint32(r.Width()), uint32(r.Height())
	pixelBufSize := uint64(w) * uint64(h) * 4
	workBufSize := uint64(w) * uint64(h) * 16

	masks := makeMasks(p.Masks)
	masksBytes := packMasks(masks)
	lutBytes, useLUT := makeLUTBytes(p.Curve)
	packedPixels := packPixels(r)

	masksBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "adjust_masks", Size: uint64(len(masksBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create masks buffer: %w", err)
	}
	defer b.device.DestroyBuffer(masksBuf)

	lutBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "adjust_lut", Size: uint64(len(lutBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create lut buffer: %w", err)
	}
	defer b.device.DestroyBuffer(lutBuf)

	pixelsBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "adjust_pixels", Size: pixelBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create pixels buffer: %w", err)
	}
	defer b.device.DestroyBuffer(pixelsBuf)

	workBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "adjust_work", Size: workBufSize,
		Usage: gputypes.BufferUsageStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create work buffer: %w", err)
	}
	defer b.device.DestroyBuffer(workBuf)

	stagingBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "adjust_staging", Size: pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(stagingBuf)

	b.queue.WriteBuffer(masksBuf, 0, masksBytes)
	b.queue.WriteBuffer(lutBuf, 0, lutBytes)
	b.queue.WriteBuffer(pixelsBuf, 0, packedPixels)

	// One uniform buffer and bind group per pass: load, each mask, store.
	passCount := 2 + len(masks)
	base := gpuParams{
		Width: w, Height: h,
		MaskCount: uint32(len(masks)),
		Ops:       makeOps(p),
	}
	if useLUT {
		base.UseLUT = 1
	}

	uniformBufs := make([]hal.Buffer, 0, passCount)
	bindGroups := make([]hal.BindGroup, 0, passCount)
	defer func() {
		for _, bg := range bindGroups {
			b.device.DestroyBindGroup(bg)
		}
		for _, ub := range uniformBufs {
			b.device.DestroyBuffer(ub)
		}
	}()

	paramSize := uint64(unsafe.Sizeof(gpuParams{}))
	for pass := 0; pass < passCount; pass++ {
		params := base
		if pass >= 1 && pass < passCount-1 {
			params.MaskIndex = uint32(pass - 1)
		}
		paramsBytes := structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params))

		ub, err := b.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "adjust_params", Size: paramSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("create uniform buffer %d: %w", pass, err)
		}
		uniformBufs = append(uniformBufs, ub)
		b.queue.WriteBuffer(ub, 0, paramsBytes)

		bg, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label: "adjust_bind", Layout: b.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: paramSize}},
				{Binding: 1, Resource: gputypes.BufferBinding{Buffer: masksBuf.NativeHandle(), Offset: 0, Size: uint64(len(masksBytes))}},
				{Binding: 2, Resource: gputypes.BufferBinding{Buffer: lutBuf.NativeHandle(), Offset: 0, Size: uint64(len(lutBytes))}},
				{Binding: 3, Resource: gputypes.BufferBinding{Buffer: pixelsBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
				{Binding: 4, Resource: gputypes.BufferBinding{Buffer: workBuf.NativeHandle(), Offset: 0, Size: workBufSize}},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create bind group %d: %w", pass, err)
		}
		bindGroups = append(bindGroups, bg)
	}

	if err := b.encodePasses(bindGroups, pixelsBuf, stagingBuf, w, h, pixelBufSize); err != nil {
		return nil, err
	}

	readback, err := b.readStaging(stagingBuf, pixelBufSize)
	if err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	out := raster.New(r.Width(), r.Height(), r.Channels())
	unpackPixels(readback, out)
	return out, nil
}

// readStaging maps the staging buffer and copies its contents out.
func (b *Backend) readStaging(buf hal.Buffer, size uint64) ([]byte, error) {
	mapping, err := b.device.MapBuffer(buf, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(mapping.Ptr), size))
	if err := b.device.UnmapBuffer(buf); err != nil {
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return out, nil
}

// encodePasses records all compute passes in one command encoder and
// blocks until the submission completes. Implicit storage barriers
// between passes order the load, mask and store stages.
func (b *Backend) encodePasses(
	bindGroups []hal.BindGroup, pixelsBuf, stagingBuf hal.Buffer,
	w, h uint32, pixelBufSize uint64,
) error {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "adjust_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("adjust"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	for i, bg := range bindGroups {
		pipe := b.maskPipe
		switch i {
		case 0:
			pipe = b.loadPipe
		case len(bindGroups) - 1:
			pipe = b.storePipe
		}
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "adjust_pass"})
		pass.SetPipeline(pipe)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch((w+7)/8, (h+7)/8, 1)
		pass.End()
	}

	encoder.CopyBufferToBuffer(pixelsBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	idx, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	deadline := time.Now().Add(gpuTimeout)
	for b.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("wait for GPU: submission %d not complete after %v", idx, gpuTimeout)
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}
