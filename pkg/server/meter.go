package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/raterudder/essent/pkg/essent"
	"github.com/raterudder/essent/pkg/log"
	"github.com/raterudder/essent/pkg/types"
)

func (s *Server) handleEANs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var eans []string
	err := s.withSession(ctx, func() error {
		var err error
		eans, err = s.meter.EANs(ctx)
		return err
	})
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get eans", slog.Any("error", err))
		writeJSONError(w, "failed to get eans", upstreamStatus(err))
		return
	}
	if eans == nil {
		eans = []string{}
	}

	writeJSON(w, struct {
		EANs []string `json:"eans"`
	}{EANs: eans})
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	ean := q.Get("ean")
	if ean == "" {
		writeJSONError(w, "missing ean", http.StatusBadRequest)
		return
	}
	opts := essent.ReadingOptions{
		StartDate: q.Get("start"),
		EndDate:   q.Get("end"),
	}
	if v := q.Get("onlyLast"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, "invalid onlyLast", http.StatusBadRequest)
			return
		}
		opts.OnlyLastMeterReading = b
	}

	var info types.MeterInfo
	err := s.withSession(ctx, func() error {
		var err error
		info, err = s.meter.ReadMeter(ctx, ean, opts)
		return err
	})
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to read meter", slog.String("ean", ean), slog.Any("error", err))
		writeJSONError(w, "failed to read meter", upstreamStatus(err))
		return
	}

	writeJSON(w, info)
}
