package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/simpleperf/internal/errorutil"
	"github.com/getsentry/simpleperf/internal/nodetree"
	"github.com/getsentry/simpleperf/internal/simpleperf"
	"github.com/getsentry/simpleperf/internal/speedscope"
	"github.com/getsentry/simpleperf/internal/storageutil"
)

type PostTraceResponse struct {
	TraceID    string            `json:"trace_id"`
	Speedscope speedscope.Output `json:"speedscope"`
}

func (env *environment) postTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	clock := nodetree.GlobalClock
	if rawClock := r.URL.Query().Get("clock"); rawClock != "" {
		clock = nodetree.Clock(rawClock)
		if clock != nodetree.GlobalClock && clock != nodetree.ThreadClock {
			http.Error(w, fmt.Sprintf("invalid clock %q", rawClock), http.StatusBadRequest)
			return
		}
	}

	s := sentry.StartSpan(ctx, "request.body")
	s.Description = "Read request body"
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, env.config.MaxTraceBytes))
	s.Finish()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	traceID := uuid.New().String()
	logger := log.With().Str("trace_id", traceID).Int("size", len(body)).Logger()
	hub.Scope().SetTag("trace_id", traceID)

	s = sentry.StartSpan(ctx, "simpleperf.parse")
	s.Description = "Parse trace and build call trees"
	t, err := simpleperf.Parse(ctx, bytes.NewReader(body), simpleperf.Options{
		Logger:  &logger,
		Workers: env.config.Workers,
	})
	s.Finish()
	if err != nil {
		if errorutil.IsInputError(err) {
			logger.Warn().Err(err).Msg("trace can't be parsed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hub.CaptureException(err)
		logger.Err(err).Msg("error parsing trace")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if clock == nodetree.ThreadClock && !t.SupportsThreadTime() {
		clock = nodetree.GlobalClock
	}
	hub.Scope().SetTags(map[string]string{
		"app_package_name": t.AppPackageName,
		"clock":            string(clock),
	})

	s = sentry.StartSpan(ctx, "speedscope")
	s.Description = "Convert call trees to speedscope"
	o := speedscope.FromTrace(t, clock)
	s.Finish()

	s = sentry.StartSpan(ctx, "blob.write")
	s.Description = "Write speedscope profile to storage"
	err = storageutil.CompressedWrite(ctx, env.storage, storageutil.TracePath(traceID), o)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		logger.Err(err).Msg("error storing trace")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "json.marshal")
	s.Description = "Marshal response"
	b, err := json.Marshal(PostTraceResponse{
		TraceID:    traceID,
		Speedscope: o,
	})
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/traces/"+traceID)
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(b)
}

func (env *environment) getTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)
	ps := httprouter.ParamsFromContext(ctx)
	rawTraceID := ps.ByName("trace_id")
	traceID, err := uuid.Parse(rawTraceID)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	hub.Scope().SetTag("trace_id", rawTraceID)

	s := sentry.StartSpan(ctx, "blob.read")
	s.Description = "Read speedscope profile from storage"
	var o speedscope.Output
	err = storageutil.UnmarshalCompressed(ctx, env.storage, storageutil.TracePath(traceID.String()), &o)
	s.Finish()
	if err != nil {
		if errors.Is(err, storageutil.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "json.marshal")
	s.Description = "Marshal speedscope profile"
	b, err := json.Marshal(o)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
