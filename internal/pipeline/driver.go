package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/modhub/repoindex/internal/catalog"
	"github.com/modhub/repoindex/internal/discovery"
	"github.com/modhub/repoindex/internal/metadata"
	"github.com/modhub/repoindex/internal/version"
)

// Driver wires discovery, version resolution and assembly together.
type Driver struct {
	// FS receives the written index.
	FS         afero.Fs
	Discoverer *discovery.Discoverer
	Resolver   *version.Resolver
	Logger     *log.Logger
	// Concurrency bounds the modules resolved at once; 1 when unset.
	Concurrency int
	// Now stamps the index; time.Now when nil.
	Now func() time.Time
}

func (d *Driver) logger() *log.Logger {
	if d.Logger == nil {
		return log.New(io.Discard)
	}
	return d.Logger
}

// Run builds the index for the modules under root. The returned error is
// set only when no index could be built; the Report is returned in every
// case.
func (d *Driver) Run(ctx context.Context, root string) (*catalog.Index, *Report, error) {
	logger := d.logger()
	report := &Report{}

	disc := d.Discoverer.OnSkip(func(id string, err error) {
		logger.Warn("module skipped", "module", id, "err", err)
		report.add(id, KindSkipped, err)
	})
	seq, err := disc.Discover(root)
	if err != nil {
		logger.Error("cannot read module root", "root", root, "err", err)
		return nil, report, err
	}

	limit := d.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var slots []*catalog.Module
	for desc := range seq {
		if ctx.Err() != nil {
			break
		}
		slot := &catalog.Module{Descriptor: desc}
		slots = append(slots, slot)
		g.Go(func() error {
			slot.Versions = d.resolve(gctx, desc, report)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, report, fmt.Errorf("building index: %w", err)
	}
	report.sort()

	modules := make([]catalog.Module, len(slots))
	for i, s := range slots {
		modules[i] = *s
	}

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	idx := catalog.Assemble(now(), modules)
	logger.Info("index built",
		"modules", idx.Len(),
		"skipped", report.Count(KindSkipped),
		"inspection_failed", report.Count(KindInspectionFailed))
	return idx, report, nil
}

func (d *Driver) resolve(ctx context.Context, desc *metadata.Descriptor, report *Report) []version.Record {
	logger := d.logger()
	records, err := d.Resolver.Resolve(ctx, desc.Source)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("cannot resolve versions", "module", desc.ID, "source", desc.Source, "err", err)
			report.add(desc.ID, KindInspectionFailed, err)
		}
		return []version.Record{}
	}
	logger.Debug("versions resolved", "module", desc.ID, "count", len(records))
	return records
}

// Build runs the pipeline and writes the index to output. Nothing is
// written when the run fails.
func (d *Driver) Build(ctx context.Context, root, output string, indent bool) (*catalog.Index, *Report, error) {
	idx, report, err := d.Run(ctx, root)
	if err != nil {
		return nil, report, err
	}
	if err := catalog.WriteFile(d.FS, output, idx, indent); err != nil {
		d.logger().Error("cannot write index", "path", output, "err", err)
		return nil, report, err
	}
	d.logger().Info("index written", "path", output)
	return idx, report, nil
}
