// Package pipeline runs one reach set end to end: retrieve and align the
// observations, filter bad time columns, classify data sufficiency,
// dispatch the estimator, and re-expand the estimates onto the pre-filter
// time axis for output.
//
// Every non-fatal data problem is folded into the quality tier and the run
// still writes exactly one output record. Only structural failures (bad
// reads, estimator faults, sink errors) surface as errors and abort the run
// with nothing written.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/swot-confluence/metroman/internal/align"
	"github.com/swot-confluence/metroman/internal/assemble"
	"github.com/swot-confluence/metroman/internal/estimator"
	"github.com/swot-confluence/metroman/internal/log"
	"github.com/swot-confluence/metroman/internal/obs"
	"github.com/swot-confluence/metroman/internal/quality"
	"github.com/swot-confluence/metroman/internal/storage"
	"github.com/swot-confluence/metroman/internal/swotdata"
)

// Config locates the input data for a run.
type Config struct {
	InputDir string // contains swot/ and sword/ subdirectories
	SosDir   string // SoS reference files (tmp dir after a bucket fetch)
}

// Runner executes reach-set runs against a fixed estimator and set of
// output sinks.
type Runner struct {
	cfg   Config
	est   estimator.Estimator
	sinks []storage.Engine
	runID string
}

// New builds a Runner. Each Runner carries a fresh run id that tags its log
// lines and output records.
func New(cfg Config, est estimator.Estimator, sinks []storage.Engine) *Runner {
	return &Runner{
		cfg:   cfg,
		est:   est,
		sinks: sinks,
		runID: uuid.NewString(),
	}
}

// Reconciled is the outcome of retrieval, alignment, filtering, and
// classification for one reach set, everything the estimator dispatch
// needs.
type Reconciled struct {
	Tier   quality.Tier
	Domain *obs.Domain
	Set    *obs.Set
	Qbar   []float64 // per-reach discharge-scale priors
	Ledger []int     // deleted pre-filter column indices, ascending

	// pre-filter aligned axis
	Instants []int64
	Elapsed  []float64 // days since first instant
}

// NTPrefilter is the aligned time-step count before filtering.
func (r *Reconciled) NTPrefilter() int {
	return len(r.Instants)
}

func (r *Runner) swotPath(ref swotdata.ReachRef) string {
	return filepath.Join(r.cfg.InputDir, "swot", ref.Swot)
}

func (r *Runner) swordPath(ref swotdata.ReachRef) string {
	return filepath.Join(r.cfg.InputDir, "sword", ref.Sword)
}

func (r *Runner) sosPath(ref swotdata.ReachRef) string {
	return filepath.Join(r.cfg.SosDir, ref.Sos)
}

// Retrieve reads and reconciles the observations for a reach set. Missing
// files, undefined priors, and insufficient coverage demote the tier; only
// structural read failures return an error.
func (r *Runner) Retrieve(set []swotdata.ReachRef) (*Reconciled, error) {
	nR := len(set)

	// raw instant sequences, in reach order; a missing file contributes
	// an empty sequence
	series := make([]align.ReachSeries, nR)
	for i, ref := range set {
		series[i] = align.ReachSeries{ReachID: ref.ReachID}
		path := r.swotPath(ref)
		if !swotdata.Exists(path) {
			log.Warnw("observation file missing", "run_id", r.runID, "reach_id", ref.ReachID, "path", path)
			continue
		}
		ticks, err := swotdata.ReadTicks(path)
		if err != nil {
			return nil, err
		}
		series[i].Ticks = ticks
	}

	alignment := align.Overlap(series)
	nt := alignment.NT()

	rec := &Reconciled{
		Domain:   &obs.Domain{NR: nR, NT: nt},
		Instants: alignment.Instants,
		Elapsed:  align.ElapsedDays(alignment.Instants),
	}

	tier := quality.Initial(nR)
	tier = quality.CheckPrefilter(tier, nt)
	if tier == quality.Invalid {
		log.Infow("insufficient aligned coverage, skipping channel reads",
			"run_id", r.runID, "nr", nR, "nt", nt)
		rec.Tier = tier
		return rec, nil
	}

	rec.Set = obs.NewSet(nR, nt)
	rec.Qbar = make([]float64, nR)
	rec.Domain.Length = make([]float64, nR)
	rec.Domain.DistOut = make([]float64, nR)

	for i, ref := range set {
		// consistency guard: the mask must select exactly nt instants.
		// A disagreement means alignment itself is broken, which data
		// alone should never cause.
		if selected := alignment.SelectedCount(ref.ReachID); selected != nt {
			log.Errorw("aligned instant count disagrees with set axis",
				"run_id", r.runID, "reach_id", ref.ReachID, "selected", selected, "nt", nt)
			rec.Tier = tier.Demote(quality.Invalid)
			return rec, nil
		}

		ch, err := swotdata.ReadChannels(r.swotPath(ref))
		if err != nil {
			return nil, err
		}
		mask := alignment.Masks[ref.ReachID]
		if err := rec.Set.SetReach(i,
			obs.ApplyMask(ch.WSE, mask),
			obs.ApplyMask(ch.Width, mask),
			obs.ApplyMask(ch.Slope, mask),
		); err != nil {
			return nil, fmt.Errorf("aggregating reach %d: %w", ref.ReachID, err)
		}

		qbar, defined, err := swotdata.ReadMeanQ(r.sosPath(ref), ref.ReachID)
		if err != nil {
			return nil, err
		}
		if !defined {
			log.Warnw("discharge-scale prior undefined", "run_id", r.runID, "reach_id", ref.ReachID)
			tier = tier.Demote(quality.Invalid)
		}
		rec.Qbar[i] = qbar

		length, distOut, err := swotdata.ReadGeometry(r.swordPath(ref), ref.ReachID)
		if err != nil {
			return nil, err
		}
		rec.Domain.Length[i] = length
		rec.Domain.DistOut[i] = distOut
	}
	rec.Domain.DeriveXKM()

	rec.Ledger = rec.Set.Filter()
	ntFiltered := nt - len(rec.Ledger)
	tier = quality.CheckPostfilter(tier, ntFiltered)

	if len(rec.Ledger) > 0 {
		log.Infow("removed invalid time columns",
			"run_id", r.runID, "deleted", len(rec.Ledger), "nt_filtered", ntFiltered)
	}

	if tier.Usable() {
		filteredElapsed := obs.DeleteFloats(rec.Elapsed, rec.Ledger)
		rec.Domain.NT = ntFiltered
		rec.Domain.ElapsedDays = filteredElapsed
		rec.Domain.DTSeconds = align.DeltaSeconds(filteredElapsed)
	}

	rec.Tier = tier
	return rec, nil
}

// Run executes the full pipeline for one reach set and writes the output
// record to every sink.
func (r *Runner) Run(ctx context.Context, set []swotdata.ReachRef) error {
	setID := swotdata.SetID(set)
	log.Infow("starting reach-set run", "run_id", r.runID, "set_id", setID, "nr", len(set))

	rec, err := r.Retrieve(set)
	if err != nil {
		return fmt.Errorf("retrieving set %s: %w", setID, err)
	}
	log.Infow("reconciled observations",
		"run_id", r.runID, "set_id", setID, "tier", rec.Tier.String(),
		"nt_prefilter", rec.NTPrefilter(), "deleted", len(rec.Ledger))

	record, err := r.buildRecord(set, setID, rec)
	if err != nil {
		return fmt.Errorf("estimating set %s: %w", setID, err)
	}

	for _, sink := range r.sinks {
		if err := sink.WriteRecord(ctx, record); err != nil {
			return fmt.Errorf("writing record for set %s: %w", setID, err)
		}
	}
	log.Infow("run complete", "run_id", r.runID, "set_id", setID, "valid", record.Valid)
	return nil
}

// buildRecord dispatches the estimator according to the tier and assembles
// the output record on the pre-filter axis.
func (r *Runner) buildRecord(set []swotdata.ReachRef, setID string, rec *Reconciled) (*storage.Record, error) {
	record := &storage.Record{
		SetID:    setID,
		RunID:    r.runID,
		RunTime:  time.Now().UTC(),
		ReachIDs: reachIDs(set),
		Tier:     rec.Tier.String(),
	}

	if rec.Tier == quality.Invalid {
		// fill-valued scalars, zero-length series
		record.Valid = 0
		record.A0 = assemble.FillSlice(len(set), assemble.FillValue)
		record.Na = assemble.FillSlice(len(set), assemble.FillValue)
		record.X1 = assemble.FillSlice(len(set), assemble.FillValue)
		record.Q = [][]float64{}
		record.QUnc = [][]float64{}
		record.Time = []float64{}
		return record, nil
	}

	estimator.ApplySlopeFloor(rec.Set)
	estimator.CalcDA(rec.Set)

	prior, err := estimator.BuildPrior(rec.Qbar, rec.Set)
	if err != nil {
		return nil, err
	}
	est, err := r.est.Estimate(rec.Domain, rec.Set, prior, rec.Tier)
	if err != nil {
		return nil, err
	}

	record.Valid = 1
	record.A0 = est.A0
	record.Na = est.Na
	record.X1 = est.X1
	record.Time = rec.Elapsed
	record.Q = assemble.ExpandRows(est.Q, rec.Ledger, assemble.FillValue)
	if rec.Tier == quality.Nominal {
		record.QUnc = assemble.ExpandRows(est.QUnc, rec.Ledger, assemble.FillValue)
	} else {
		// prior-only estimates carry no uncertainty series
		record.QUnc = assemble.FillRows(len(set), rec.NTPrefilter(), assemble.FillValue)
	}
	return record, nil
}

func reachIDs(set []swotdata.ReachRef) []int64 {
	ids := make([]int64, len(set))
	for i, ref := range set {
		ids[i] = ref.ReachID
	}
	return ids
}
