package processor

import (
	"errors"
	"fmt"
	"io"
	"time"

	"quotedump/logger"
	"quotedump/models"
)

// FrameSource yields captured frames in file order and io.EOF once
// exhausted. Any other error is fatal to the run.
type FrameSource interface {
	Next() (models.RawFrame, error)
}

// RunStats counts what happened to every frame of a run.
type RunStats struct {
	FramesRead    int64
	FramesMatched int64
	QuotesDecoded int64
	Skipped       map[string]int64
	Elapsed       time.Duration
}

// Decoder turns a frame source into a collection of quotes.
type Decoder struct {
	log *logger.Log
}

// NewDecoder returns a Decoder logging through the process logger.
func NewDecoder() *Decoder {
	return &Decoder{log: logger.GetLogger()}
}

// Run decodes every frame of src. Frames that are not quotes or fail to
// decode are counted and skipped; only a source error stops the run.
func (d *Decoder) Run(src FrameSource) (*models.QuoteCollection, RunStats, error) {
	start := time.Now()
	log := d.log.WithComponent("decoder")
	quotes := models.NewQuoteCollection(1024)
	stats := RunStats{Skipped: make(map[string]int64)}

	for {
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Elapsed = time.Since(start)
			return quotes, stats, fmt.Errorf("reading frames: %w", err)
		}
		stats.FramesRead++

		q, err := DecodeFrame(frame)
		if err != nil {
			reason := SkipReason(err)
			stats.Skipped[reason]++
			if reason != "not_quote" {
				stats.FramesMatched++
				log.WithError(err).WithFields(logger.Fields{
					"frame":  stats.FramesRead,
					"reason": reason,
				}).Debug("quote frame skipped")
			}
			continue
		}
		stats.FramesMatched++
		stats.QuotesDecoded++
		quotes.Add(q)
	}

	stats.Elapsed = time.Since(start)
	logger.LogPerformanceEntry(log, "decoder", "decode_capture", stats.Elapsed, logger.Fields{
		"frames_read":    stats.FramesRead,
		"quotes_decoded": stats.QuotesDecoded,
	})
	return quotes, stats, nil
}
