// Package swotdata reads the inputs for one reach-set run: the manifest of
// reach sets, per-reach observation files, and the SoS / SWORD reference
// lookups.
package swotdata

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// BatchIndexSentinel is the -index flag default that means "take the index
// from the batch environment instead".
const BatchIndexSentinel = -235

// BatchIndexEnv is the environment variable carrying the array-job index.
const BatchIndexEnv = "AWS_BATCH_JOB_ARRAY_INDEX"

// ReachRef is one manifest entry: a reach identifier plus the file names of
// its observation and reference data.
type ReachRef struct {
	ReachID int64  `json:"reach_id"`
	Swot    string `json:"swot"`
	Sos     string `json:"sos"`
	Sword   string `json:"sword"`
}

// Manifest is the ordered list of reach sets a deployment processes, as
// parsed from the sets JSON file.
type Manifest [][]ReachRef

// LoadManifest parses the sets JSON file.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Select returns the reach set at index. An out-of-range index or an empty
// set is fatal to the run.
func (m Manifest) Select(index int) ([]ReachRef, error) {
	if index < 0 || index >= len(m) {
		return nil, fmt.Errorf("set index %d out of range (manifest has %d sets)", index, len(m))
	}
	set := m[index]
	if len(set) == 0 {
		return nil, fmt.Errorf("set index %d is empty", index)
	}
	return set, nil
}

// ResolveIndex maps the -index flag value to the set index, falling back to
// the batch array-job environment when the flag holds the sentinel.
func ResolveIndex(flagValue int) (int, error) {
	if flagValue != BatchIndexSentinel {
		return flagValue, nil
	}
	raw, ok := os.LookupEnv(BatchIndexEnv)
	if !ok {
		return 0, fmt.Errorf("no -index given and %s is unset", BatchIndexEnv)
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", BatchIndexEnv, raw, err)
	}
	return idx, nil
}

// SetID is the output record key: the ordered, hyphen-joined reach
// identifiers of the set.
func SetID(set []ReachRef) string {
	ids := make([]string, len(set))
	for i, ref := range set {
		ids[i] = strconv.FormatInt(ref.ReachID, 10)
	}
	return strings.Join(ids, "-")
}
