package swotdata

import (
	"database/sql"
	"fmt"
	"math"
	"os"

	_ "modernc.org/sqlite"

	"github.com/swot-confluence/metroman/internal/align"
)

// Channels holds one reach's raw observation channels in recorded order.
// NULL readings become NaN; lengths match the reach's tick sequence.
type Channels struct {
	WSE   []float64
	Width []float64
	Slope []float64
}

// Exists reports whether the observation file for a reach is present. An
// absent file is the non-fatal MissingInput condition: the reach simply
// contributes no candidate instants.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadTicks loads a reach's raw observation instant sequence. NULL time
// ticks are undefined instants. Channel columns are untouched; alignment
// needs only the times, and the quality checkpoints may rule out reading
// anything further.
func ReadTicks(path string) ([]align.Tick, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening observation file %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT time_tick FROM observations ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying instants in %s: %w", path, err)
	}
	defer rows.Close()

	var ticks []align.Tick
	for rows.Next() {
		var tick sql.NullInt64
		if err := rows.Scan(&tick); err != nil {
			return nil, fmt.Errorf("scanning instant in %s: %w", path, err)
		}
		ticks = append(ticks, align.Tick{Value: tick.Int64, Defined: tick.Valid})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating instants in %s: %w", path, err)
	}
	return ticks, nil
}

// ReadChannels loads a reach's elevation, width, and slope sequences in
// recorded order.
func ReadChannels(path string) (*Channels, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening observation file %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT wse, width, slope FROM observations ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying channels in %s: %w", path, err)
	}
	defer rows.Close()

	ch := &Channels{}
	for rows.Next() {
		var wse, width, slope sql.NullFloat64
		if err := rows.Scan(&wse, &width, &slope); err != nil {
			return nil, fmt.Errorf("scanning channel row in %s: %w", path, err)
		}
		ch.WSE = append(ch.WSE, nullToNaN(wse))
		ch.Width = append(ch.Width, nullToNaN(width))
		ch.Slope = append(ch.Slope, nullToNaN(slope))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating channels in %s: %w", path, err)
	}
	return ch, nil
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// ReadMeanQ looks up the discharge-scale prior for a reach in the SoS
// reference file. defined is false when the reach has no row or a NULL
// value; that is the UndefinedPrior condition and is the caller's to fold
// into the quality tier.
func ReadMeanQ(path string, reachID int64) (meanQ float64, defined bool, err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, false, fmt.Errorf("opening SoS file %s: %w", path, err)
	}
	defer db.Close()

	var v sql.NullFloat64
	err = db.QueryRow(`SELECT mean_q FROM model WHERE reach_id = ?`, reachID).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying mean_q for reach %d in %s: %w", reachID, path, err)
	}
	if !v.Valid || math.IsNaN(v.Float64) {
		return 0, false, nil
	}
	return v.Float64, true, nil
}

// ReadGeometry looks up reach length and outlet distance in the SWORD
// reference file. A missing row is fatal: geometry is required for every
// reach that reaches the read stage.
func ReadGeometry(path string, reachID int64) (length, distOut float64, err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening SWORD file %s: %w", path, err)
	}
	defer db.Close()

	err = db.QueryRow(`
		SELECT reach_length, dist_out FROM reaches WHERE reach_id = ?
	`, reachID).Scan(&length, &distOut)
	if err != nil {
		return 0, 0, fmt.Errorf("querying geometry for reach %d in %s: %w", reachID, path, err)
	}
	return length, distOut, nil
}
