package cache

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
)

// Fingerprint hashes a dataset in order. Usage maps are hashed in key order so
// equal datasets always produce equal fingerprints. Periods are hashed with
// their location, since a cached result carries the times it was built from.
func Fingerprint(records []model.ActivityRecord) uint64 {
	d := xxhash.New()
	var buf [8]byte
	num := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	}
	str := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(s)
	}
	usage := func(u model.Usage) {
		keys := make([]string, 0, len(u))
		for k := range u {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		num(float64(len(keys)))
		for _, k := range keys {
			str(k)
			num(u[k])
		}
	}

	num(float64(len(records)))
	for i := range records {
		r := &records[i]
		str(r.Name)
		str(r.Email)
		str(r.Company)
		str(r.OrgUnit)
		num(float64(r.PeriodEnd.UnixNano()))
		zone, offset := r.PeriodEnd.Zone()
		str(r.PeriodEnd.Location().String())
		str(zone)
		num(float64(offset))
		num(r.Messages)
		num(r.GPTMessages)
		num(r.ProjectsCreated)
		usage(r.ModelUsage)
		usage(r.ToolUsage)
	}
	return d.Sum64()
}
