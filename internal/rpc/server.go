package rpc

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/typesketch/tysketch/internal/ir"
	"github.com/typesketch/tysketch/internal/pipeline"
	"github.com/typesketch/tysketch/internal/sketchviz"
	"github.com/typesketch/tysketch/internal/store"
)

// Server implements SketchServiceServer by running the standard
// load/generate/build pipeline over each fixture in the request batch.
// When Cache is non-nil, every rendering is also persisted under the
// request's run id (minting one if the request left it empty).
type Server struct {
	Logger *log.Logger
	Cache  *store.Store
}

// NewServer builds a Server, defaulting Logger to log.Default when nil.
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Logger: logger}
}

// BuildSketches runs every fixture in req through the pipeline and
// collects the Graphviz rendering of every resulting sketch, keyed by
// "<fixture-name>:<tid>" so a batch of fixtures with overlapping Tids
// cannot collide.
func (s *Server) BuildSketches(ctx context.Context, req *FixtureBatch) (*SketchBatch, error) {
	runID := req.RunID
	if runID == "" {
		runID = store.NewRun()
	}
	reply := &SketchBatch{RunID: runID, Renderings: make(map[string]string)}

	names := make([]string, 0, len(req.Fixtures))
	for name := range req.Fixtures {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fx, err := ir.LoadFixtureBytes(name, req.Fixtures[name])
		if err != nil {
			return nil, fmt.Errorf("rpc: fixture %s: %w", name, err)
		}

		pctx := pipeline.NewContext(name)
		pctx.Fixture = fx
		result := pipeline.New(pipeline.GenerateConstraintsStage{}, pipeline.BuildSketchesStage{}).Run(pctx)
		if result.Err != nil {
			return nil, fmt.Errorf("rpc: fixture %s: %w", name, result.Err)
		}
		for _, w := range result.Warnings {
			s.Logger.Printf("%s: %s", name, w.Error())
		}

		var tids []string
		for tid := range result.Result.Sketches {
			tids = append(tids, tid)
		}
		sort.Strings(tids)
		for _, tid := range tids {
			sk := result.Result.Sketches[tid]
			reply.Renderings[name+":"+tid] = sketchviz.Graphviz(sk)
			if s.Cache != nil {
				if err := s.Cache.Put(ctx, runID, name+":"+tid, sk); err != nil {
					s.Logger.Printf("%s: cache: %v", name, err)
				}
			}
		}
	}

	return reply, nil
}
