// Package server exposes a collection over HTTP
package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nainya/ndstore/internal/logger"
	"github.com/nainya/ndstore/internal/metrics"
	"github.com/nainya/ndstore/pkg/codec"
	"github.com/nainya/ndstore/pkg/collection"
	"github.com/nainya/ndstore/pkg/errs"
	"github.com/nainya/ndstore/pkg/query"
	"github.com/nainya/ndstore/pkg/record"
	"github.com/nainya/ndstore/pkg/storage"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 32 << 20

// Server serializes access to one collection
type Server struct {
	mu   sync.Mutex
	coll *collection.Collection
	log  *logger.Logger

	startTime time.Time
	opCounts  map[string]int64
}

// NewServer creates a server over coll
func NewServer(coll *collection.Collection, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		coll:      coll,
		log:       log.Component("http"),
		startTime: time.Now(),
		opCounts:  make(map[string]int64),
	}
}

// Handler returns the routes, wrapped with request metrics when m is set
func (s *Server) Handler(m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	registerObservability(mux, gatherer, func() bool { return s.coll != nil })

	mux.HandleFunc("GET /records", s.listRecords)
	mux.HandleFunc("POST /records", s.insertRecords)
	mux.HandleFunc("DELETE /records", s.removeRecords)
	mux.HandleFunc("POST /query", s.runQuery)
	mux.HandleFunc("GET /stats/{dim}", s.stats)
	mux.HandleFunc("GET /groups/{dim}", s.groups)
	mux.HandleFunc("GET /hashes/{name}", s.hash)
	mux.HandleFunc("POST /save/{id}", s.save)
	mux.HandleFunc("POST /load/{id}", s.load)
	mux.HandleFunc("GET /info", s.info)

	return MetricsMiddleware(m, s.log, mux)
}

func (s *Server) count(op string) {
	s.opCounts[op]++
}

// ========== Records ==========

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("list")

	s.writeCollection(w, s.coll)
}

func (s *Server) insertRecords(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, errs.Wrap(errs.InvalidArgument, "insert", err))
		return
	}
	records, err := decodeRecords(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("insert")

	before := s.coll.Len()
	if err := s.coll.Import(records); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"inserted": s.coll.Len() - before,
		"total":    s.coll.Len(),
	})
}

// decodeRecords accepts a single JSON object or an array of objects
func decodeRecords(body []byte) ([]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		body = append(append([]byte{'['}, body...), ']')
	}
	records, err := codec.Decode(string(body))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "insert", err)
	}
	return records, nil
}

func (s *Server) removeRecords(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("remove")

	removed := s.coll.Len()
	if err := s.coll.Remove(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// ========== Queries ==========

// ConditionRequest is one condition of a query request
type ConditionRequest struct {
	Dimension string     `json:"dimension"`
	Operator  string     `json:"operator"`
	Value     any        `json:"value,omitempty"`
	Join      query.Join `json:"join"`
	// Break starts a new group with this condition
	Break bool `json:"break,omitempty"`
}

// QueryRequest is the body of POST /query
type QueryRequest struct {
	Conditions []ConditionRequest `json:"conditions"`
	Limit      int                `json:"limit,omitempty"`
	SortBy     []string           `json:"sort_by,omitempty"`
}

// Build turns the request into a query
func (q QueryRequest) Build() (query.Query, error) {
	if len(q.Conditions) == 0 {
		return query.Query{}, errs.E(errs.MalformedQuery, "query", "no conditions")
	}
	first := q.Conditions[0]
	b := query.NewBuilder(first.Dimension, first.Operator, first.Value)
	for _, c := range q.Conditions[1:] {
		if c.Break {
			b.Break()
		}
		switch c.Join {
		case query.Or:
			b.Or(c.Dimension, c.Operator, c.Value)
		case query.Not:
			b.Not(c.Dimension, c.Operator, c.Value)
		default:
			b.And(c.Dimension, c.Operator, c.Value)
		}
	}
	return b.Build()
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, errs.Wrap(errs.MalformedQuery, "query", err))
		return
	}
	q, err := req.Build()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("query")

	out, err := s.coll.Run(q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.SortBy) > 0 {
		out.SortBy(req.SortBy...)
	}
	if req.Limit != 0 {
		out = out.Limit(req.Limit)
	}
	s.writeCollection(w, out)
}

// ========== Aggregates ==========

// StatsResponse holds the aggregates of one dimension; undefined values
// are null
type StatsResponse struct {
	Dimension string   `json:"dimension"`
	Count     int      `json:"count"`
	Sum       *float64 `json:"sum"`
	Mean      *float64 `json:"mean"`
	Stddev    *float64 `json:"stddev"`
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	dim := r.PathValue("dim")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("stats")

	writeJSON(w, http.StatusOK, StatsResponse{
		Dimension: dim,
		Count:     s.coll.Count(dim),
		Sum:       optional(s.coll.Sum(dim)),
		Mean:      optional(s.coll.Mean(dim)),
		Stddev:    optional(s.coll.Stddev(dim)),
		Min:       optional(s.coll.Min(dim)),
		Max:       optional(s.coll.Max(dim)),
	})
}

// GroupResponse describes one group of GET /groups
type GroupResponse struct {
	Value any `json:"value"`
	Count int `json:"count"`
}

func (s *Server) groups(w http.ResponseWriter, r *http.Request) {
	dim := r.PathValue("dim")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("groups")

	groups := s.coll.GroupBy(dim)
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		first, _ := g.First()
		value, _ := record.Get(first, dim)
		out = append(out, GroupResponse{Value: value, Count: g.Len()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) hash(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("hash")

	h, ok := s.coll.Hash(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no hash named " + name})
		return
	}
	buckets := make(map[string]int, h.Len())
	for _, key := range h.Keys() {
		b, _ := h.Get(key)
		buckets[key] = b.Len()
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "buckets": buckets})
}

// ========== Persistence ==========

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	compress := r.URL.Query().Get("pretty") == ""

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("save")

	if err := s.coll.Save(r.Context(), id, compress); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "records": s.coll.Len()})
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("load")

	before := s.coll.Len()
	if err := s.coll.Load(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "loaded": s.coll.Len() - before})
}

// ========== Info ==========

// InfoResponse summarizes the served collection
type InfoResponse struct {
	Collection    string              `json:"collection"`
	Records       int                 `json:"records"`
	Definitions   map[string][]string `json:"definitions"`
	Tags          []string            `json:"tags"`
	UptimeSeconds float64             `json:"uptime_seconds"`
	Operations    map[string]int64    `json:"operations"`
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := make(map[string]int64, len(s.opCounts))
	for op, n := range s.opCounts {
		ops[op] = n
	}
	tags := s.coll.Tags()
	sort.Strings(tags)
	writeJSON(w, http.StatusOK, InfoResponse{
		Collection:    s.coll.ID(),
		Records:       s.coll.Len(),
		Definitions:   s.coll.Definitions(),
		Tags:          tags,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		Operations:    ops,
	})
}

// ========== Responses ==========

func (s *Server) writeCollection(w http.ResponseWriter, c *collection.Collection) {
	text, err := c.Stringify(true)
	if err != nil {
		s.writeError(w, errs.Wrap(errs.StorageFailure, "encode", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   c.Len(),
		"records": json.RawMessage(text),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps error kinds to HTTP status codes
func statusFor(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch errs.KindOf(err) {
	case errs.InvalidOperator, errs.MalformedQuery, errs.InvalidArgument,
		errs.InvalidIndexName, errs.ReservedName, errs.InvalidComparator, errs.InvalidTag:
		return http.StatusBadRequest
	case errs.MissingCollaborator:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.GetZerolog().Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  errs.KindOf(err).String(),
	})
}
