package harness

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// progressWriter logs the amount of harness output received.
type progressWriter struct {
	logger   zerolog.Logger
	out      io.Writer
	interval time.Duration
	now      func() time.Time

	start       time.Time
	last        time.Time
	transferred int64
	delta       int64
}

func newProgressWriter(logger zerolog.Logger, out io.Writer, interval time.Duration) *progressWriter {
	p := &progressWriter{
		logger:   logger,
		out:      out,
		interval: interval,
		now:      time.Now,
	}
	p.start = p.now()
	p.last = p.start
	return p
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.out.Write(b)
	p.transferred += int64(n)
	p.delta += int64(n)

	if now := p.now(); now.Sub(p.last) >= p.interval {
		p.report(now)
	}
	return n, err
}

func (p *progressWriter) report(now time.Time) {
	runtime := now.Sub(p.start)
	speed := 0.0
	if elapsed := now.Sub(p.last).Seconds(); elapsed > 0 {
		speed = float64(p.delta) / elapsed
	}
	p.logger.Info().
		Dur("runtime", runtime.Round(time.Second)).
		Float64("speed", speed).
		Int64("transferred", p.transferred).
		Int64("delta", p.delta).
		Msg("Harness progress")
	p.last = now
	p.delta = 0
}

func (p *progressWriter) done() {
	p.logger.Info().
		Int64("transferred", p.transferred).
		Dur("runtime", p.now().Sub(p.start).Round(time.Millisecond)).
		Msg("Harness output complete")
}
