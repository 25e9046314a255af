package retrieval

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kamusis/nlcmd/internal/corpus"
	"github.com/kamusis/nlcmd/internal/extract"
	"github.com/kamusis/nlcmd/internal/logging"
)

// Result is one suggestion, ready to show or run.
type Result struct {
	Command     string           `json:"command"`
	Description string           `json:"description"`
	Category    corpus.Category  `json:"category"`
	Score       float64          `json:"score"`
	ID          int              `json:"id"`
	Template    string           `json:"template"`
	Filled      bool             `json:"filled"`
	Entities    extract.Entities `json:"-"`
}

// Query is a suggestion request. A zero K or a nil MinScore falls back to
// the service default; a MinScore of 0 turns the threshold off.
type Query struct {
	Text     string
	K        int
	MinScore *float64
}

// Explanation is a suggestion response with the filter decision attached.
type Explanation struct {
	Query      string            `json:"query"`
	Categories []corpus.Category `json:"categories"`
	Candidates int               `json:"candidates"`
	Entities   extract.Entities  `json:"entities"`
	Results    []Result          `json:"results"`
}

// Options holds service defaults.
type Options struct {
	TopK     int
	MinScore float64
}

// Service runs the encode, filter, rank and fill pipeline over one Store.
// It holds no mutable state.
type Service struct {
	store  *Store
	enc    *Encoder
	filter *CategoryFilter
	opts   Options
	log    zerolog.Logger
}

// NewService wires a service. A nil filter uses the default keyword table.
func NewService(store *Store, enc *Encoder, filter *CategoryFilter, opts Options, log zerolog.Logger) *Service {
	if filter == nil {
		filter = NewCategoryFilter(nil)
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Service{
		store:  store,
		enc:    enc,
		filter: filter,
		opts:   opts,
		log:    logging.Component(log, "retrieval"),
	}
}

// Store returns the snapshot the service ranks over.
func (s *Service) Store() *Store { return s.store }

// Suggest returns up to k results for query in descending score order.
func (s *Service) Suggest(ctx context.Context, query string, k int) ([]Result, error) {
	ex, err := s.Explain(ctx, Query{Text: query, K: k})
	if err != nil {
		return nil, err
	}
	return ex.Results, nil
}

// Explain is Suggest plus the matched categories and extracted entities.
// Encoding failures are returned as *EncodingError.
func (s *Service) Explain(ctx context.Context, q Query) (*Explanation, error) {
	k := q.K
	if k <= 0 {
		k = s.opts.TopK
	}
	minScore := s.opts.MinScore
	if q.MinScore != nil {
		minScore = *q.MinScore
	}

	vec, err := s.enc.Encode(ctx, q.Text)
	if err != nil {
		s.log.Warn().Err(err).Msg("query encoding failed")
		return nil, err
	}

	ids, matched := s.filter.Candidates(s.store, q.Text)
	ranked, err := Rank(s.store, vec, ids, k, minScore)
	if err != nil {
		return nil, &EncodingError{Query: q.Text, Err: err}
	}

	ents := extract.Extract(q.Text)
	results := make([]Result, 0, len(ranked))
	for _, sc := range ranked {
		rec := s.store.Record(sc.ID)
		f := extract.Fill(rec, ents)
		results = append(results, Result{
			Command:     f.Command,
			Description: f.Description,
			Category:    rec.Category,
			Score:       sc.Score,
			ID:          rec.ID,
			Template:    rec.Command,
			Filled:      f.Filled,
			Entities:    ents,
		})
	}

	s.log.Debug().
		Str("query", q.Text).
		Int("candidates", len(ids)).
		Int("results", len(results)).
		Msg("suggest")

	return &Explanation{
		Query:      q.Text,
		Categories: matched,
		Candidates: len(ids),
		Entities:   ents,
		Results:    results,
	}, nil
}
