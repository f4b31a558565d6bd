package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamewatch/internal/artwork"
	"gamewatch/internal/catalog"
	"gamewatch/internal/changes"
	"gamewatch/internal/storage"
	"gamewatch/internal/transport"
	logx "gamewatch/pkg/logx"

	"golang.org/x/time/rate"
)

// Artwork derives the accent colour and the NSFW stand-in from a thumbnail.
// *artwork.Service implements it.
type Artwork interface {
	Accent(ctx context.Context, url string) (artwork.Color, error)
	Obscured(ctx context.Context, url string) ([]byte, error)
}

// Dispatcher delivers a ChangeSet, one record at a time.
type Dispatcher struct {
	cfg     Config
	primary transport.Sink
	mirrors []transport.Sink
	art     Artwork
	store   storage.Store
	limiter *rate.Limiter
	log     logx.Logger
	now     func() time.Time
}

// New builds a dispatcher. art and store may be nil: without artwork every
// colour is black and NSFW records are skipped; without a store there is no
// journal.
func New(cfg Config, primary transport.Sink, art Artwork, store storage.Store, log logx.Logger, mirrors ...transport.Sink) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{
		cfg:     cfg,
		primary: primary,
		mirrors: mirrors,
		art:     art,
		store:   store,
		log:     log.With(logx.String("comp", "dispatcher")),
		now:     time.Now,
	}
	if cfg.RatePerSec > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return d
}

// Dispatch sends one notification per change. With Abort the first failed
// delivery ends the call and is returned; with Continue all failures are
// joined and returned after the last record. Context cancellation always
// ends the call.
func (d *Dispatcher) Dispatch(ctx context.Context, cs changes.ChangeSet) (Report, error) {
	var (
		rep  Report
		errs []error
	)
	if d.primary == nil && !d.cfg.DryRun {
		return rep, errors.New("dispatcher has no sink")
	}
	d.log.Debug("dispatch start",
		logx.Int("records", len(cs)),
		logx.String("on_error", d.cfg.OnError.String()),
		logx.Bool("dry_run", d.cfg.DryRun),
	)

	for _, ch := range cs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		it, err := d.deliver(ctx, ch)
		rep.add(it)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return rep, err
		}
		if d.cfg.OnError == Abort {
			d.log.Error("delivery failed; aborting run",
				logx.String("id", it.ID),
				logx.Int("unsent", len(cs)-len(rep.Items)),
				logx.Err(err),
			)
			return rep, err
		}
		d.log.Warn("delivery failed; continuing", logx.String("id", it.ID), logx.Err(err))
		errs = append(errs, err)
	}

	d.log.Info("dispatch done",
		logx.Int("sent", rep.Sent()),
		logx.Int("skipped", rep.Skipped()),
		logx.Int("duplicate", rep.Duplicate()),
		logx.Int("failed", rep.Failed()),
	)
	return rep, errors.Join(errs...)
}

// deliver handles one record. A non-nil error is a delivery failure (or
// cancellation); skips and duplicates return nil.
func (d *Dispatcher) deliver(ctx context.Context, ch changes.Change) (Item, error) {
	rec := ch.Record
	it := Item{ID: rec.ID.String(), Name: rec.Name, Kind: ch.Kind}
	key := DedupKey(rec, d.cfg.Policy)
	log := d.log.With(logx.String("id", it.ID), logx.String("kind", string(ch.Kind)))

	if dup, err := storage.Active(ctx, d.store, key, d.now()); err != nil {
		log.Warn("journal lookup failed", logx.Err(err))
	} else if dup {
		log.Info("already delivered; skipping", logx.String("key", key))
		it.Outcome = OutcomeDuplicate
		return it, nil
	}

	n, err := d.Build(ctx, rec)
	n.Key = key
	if err != nil {
		if errors.Is(err, ErrSkipped) {
			log.Warn("record skipped", logx.String("name", rec.Name), logx.Err(err))
			it.Outcome, it.Err = OutcomeSkipped, err
			return it, nil
		}
		return it, err
	}

	if d.cfg.DryRun {
		log.Info("dry run; not sent", logx.String("name", rec.Name), logx.String("color", artwork.Color(n.Color).Hex()))
		it.Outcome = OutcomeDryRun
		return it, nil
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			it.Outcome, it.Err = OutcomeFailed, err
			return it, err
		}
	}

	start := d.now()
	err = d.primary.Send(ctx, n)
	d.audit(ctx, d.primary.Name(), ch, start, err)
	if err != nil {
		err = fmt.Errorf("deliver %s (%s): %w", it.ID, d.primary.Name(), err)
		it.Outcome, it.Err = OutcomeFailed, err
		return it, err
	}
	it.Outcome = OutcomeSent
	log.Info("notification sent", logx.String("name", rec.Name), logx.String("sink", d.primary.Name()))

	for _, m := range d.mirrors {
		start := d.now()
		merr := m.Send(ctx, n)
		d.audit(ctx, m.Name(), ch, start, merr)
		if merr != nil {
			log.Warn("mirror delivery failed", logx.String("sink", m.Name()), logx.Err(merr))
			it.MirrorErrs = append(it.MirrorErrs, fmt.Errorf("%s: %w", m.Name(), merr))
		}
	}

	if d.store != nil && d.cfg.DedupWindow > 0 {
		if err := d.store.PutDedup(ctx, key, d.now().Add(d.cfg.DedupWindow)); err != nil {
			log.Warn("journal mark failed", logx.Err(err))
		}
	}
	return it, nil
}

// Build renders a record with its accent colour and, for NSFW records, the
// obscured image. A failed colour lookup falls back to black; a failed
// obscure returns an error wrapping ErrSkipped.
func (d *Dispatcher) Build(ctx context.Context, rec catalog.Record) (transport.Notification, error) {
	n := BuildNotification(rec, d.cfg.Branding)

	if d.art == nil || n.ImageURL == "" {
		n.Color = artwork.Black.Int()
	} else if c, err := d.art.Accent(ctx, n.ImageURL); err != nil {
		d.log.Debug("accent colour unavailable; using black", logx.String("id", rec.ID.String()), logx.URL("thumbnail", n.ImageURL), logx.Err(err))
		n.Color = artwork.Black.Int()
	} else {
		n.Color = c.Int()
	}

	if !rec.NSFW() {
		return n, nil
	}
	if d.art == nil {
		return n, fmt.Errorf("%w: nsfw artwork cannot be obscured", ErrSkipped)
	}
	img, err := d.art.Obscured(ctx, n.ImageURL)
	if err != nil {
		return n, fmt.Errorf("%w: obscure nsfw artwork: %v", ErrSkipped, err)
	}
	n.ImageURL = ""
	n.Image = &transport.Attachment{Filename: NSFWFilename, ContentType: "image/jpeg", Data: img}
	return n, nil
}

func (d *Dispatcher) audit(ctx context.Context, sink string, ch changes.Change, start time.Time, err error) {
	if d.store == nil {
		return
	}
	e := storage.AuditEntry{
		At:          start,
		Sink:        sink,
		RecordID:    ch.Record.ID.String(),
		Name:        ch.Record.Name,
		DateUpdated: ch.Record.DateUpdated,
		Kind:        string(ch.Kind),
		Outcome:     string(OutcomeSent),
		TookMS:      d.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		e.Outcome, e.Error = string(OutcomeFailed), err.Error()
	}
	if aerr := d.store.AppendAudit(ctx, e); aerr != nil {
		d.log.Debug("journal audit failed", logx.Err(aerr))
	}
}
