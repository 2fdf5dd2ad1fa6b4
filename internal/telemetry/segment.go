package telemetry

// ZoneDetection holds the hysteresis parameters for brake-zone detection.
// Zero values are not usable; callers obtain one from config.TuningConfig.
type ZoneDetection struct {
	BrakeOn     float64 // pedal % at or above which a zone may open
	BrakeOff    float64 // pedal % below which a zone may close
	MinDuration float64 // seconds a zone must last to be kept
	MinOffDwell float64 // seconds the brake must stay below BrakeOff to close a zone
}

// Zone is one detected brake zone, expressed as an inclusive index range
// into the lap's sample slice.
type Zone struct {
	Start int
	End   int
}

// Segment slices a lap's samples into brake zones. A zone opens when the
// brake crosses BrakeOn after having been below it for at least MinOffDwell
// (lap start counts as below), and closes at the last sample before the
// brake stays under BrakeOff for MinOffDwell. A zone still open at the end
// of the lap is closed at the last sample. Zones shorter than MinDuration
// are discarded as sensor noise.
//
// A lap with no braking yields an empty slice; that is a valid result, not
// an error. Malformed samples fail with ErrMalformedTelemetry before any
// zone is produced.
func Segment(samples []Sample, det ZoneDetection) ([]Zone, error) {
	if err := Validate(samples); err != nil {
		return nil, err
	}

	zones := []Zone{}
	n := len(samples)
	if n == 0 {
		return zones, nil
	}

	// belowSince is the start time of the current below-threshold run. Lap
	// start counts as an arbitrarily long below run, so a lap that begins
	// under braking opens a zone at sample 0.
	belowSince := samples[0].Time - det.MinOffDwell
	inBelowRun := true
	i := 0
	for i < n {
		s := samples[i]
		if s.Brake < det.BrakeOn {
			if !inBelowRun {
				belowSince = s.Time
				inBelowRun = true
			}
			i++
			continue
		}
		if !inBelowRun || s.Time-belowSince < det.MinOffDwell {
			// Brake spiked back up before dwelling below the threshold;
			// treat it as residue of the previous zone, not a new one.
			inBelowRun = false
			i++
			continue
		}
		inBelowRun = false

		start := i
		end := n - 1
		offStart := -1
		for j := i + 1; j < n; j++ {
			if samples[j].Brake >= det.BrakeOff {
				offStart = -1
				continue
			}
			if offStart < 0 {
				offStart = j
			}
			if samples[j].Time-samples[offStart].Time >= det.MinOffDwell {
				end = offStart - 1
				break
			}
		}

		if samples[end].Time-samples[start].Time >= det.MinDuration {
			zones = append(zones, Zone{Start: start, End: end})
		}
		if end+1 < n {
			belowSince = samples[end+1].Time
			inBelowRun = true
		}
		i = end + 1
	}
	return zones, nil
}

// CornerFor maps a zone's opening distance onto the lap's sector markers and
// returns the zero-based corner index. Markers partition the lap by distance:
// corner k covers [markers[k], markers[k+1]), the last corner extends to the
// end of the lap. With no markers every zone belongs to corner 0.
func CornerFor(markers []float64, startDistance float64) int {
	corner := 0
	for k, m := range markers {
		if startDistance >= m {
			corner = k
		}
	}
	return corner
}
