package persistence

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/epoch"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// Field tags, each written as "--<Tag>:" and terminated by the next "--"
const (
	tagDate      = "Date"
	tagCelestial = "CelestialBodies"
	tagOrbital   = "OrbitalBodies"
	tagName      = "Name"
	tagParent    = "Parent"
	tagPosition  = "Position"
	tagVelocity  = "Velocity"
	tagThrust    = "Thrust"
	tagMass      = "Mass"
	tagRadius    = "Radius"
	tagSMA       = "SemiMajorAxis"
	tagEcc       = "Eccentricity"
	tagInc       = "Inclination"
	tagArgPeri   = "ArgumentOfPeriapsis"
	tagLAN       = "LongitudeAscendingNode"
	tagTrueAnom  = "TrueAnomaly"

	delimiter = "--"
	recordEnd = "---"
)

// Encode writes snap in the text save format
func Encode(w io.Writer, snap Snapshot) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "--%s:%s\n", tagDate, epoch.Format(snap.Time))

	fmt.Fprintf(bw, "--%s\n", tagCelestial)
	for i := range snap.Celestial {
		writeRecord(bw, &snap.Celestial[i], true)
	}

	fmt.Fprintf(bw, "--%s\n", tagOrbital)
	for i := range snap.Orbital {
		writeRecord(bw, &snap.Orbital[i], false)
	}

	return bw.Flush()
}

func writeRecord(bw *bufio.Writer, rec *Record, celestial bool) {
	parent := rec.Parent
	if parent == "" {
		parent = NullParent
	}

	fmt.Fprintf(bw, "--%s:%s", tagName, rec.Name)
	fmt.Fprintf(bw, "--%s:%s", tagParent, parent)
	fmt.Fprintf(bw, "--%s:%s", tagPosition, formatVec(rec.Position))
	fmt.Fprintf(bw, "--%s:%s", tagVelocity, formatVec(rec.Velocity))
	fmt.Fprintf(bw, "--%s:%s", tagMass, formatFloat(rec.Mass))
	fmt.Fprintf(bw, "--%s:%s", tagRadius, formatFloat(rec.Radius))

	if celestial && rec.Elements != nil {
		el := rec.Elements
		fmt.Fprintf(bw, "--%s:%s", tagSMA, formatFloat(el.SemiMajorAxis))
		fmt.Fprintf(bw, "--%s:%s", tagEcc, formatFloat(el.Eccentricity))
		fmt.Fprintf(bw, "--%s:%s", tagInc, formatFloat(el.Inclination))
		fmt.Fprintf(bw, "--%s:%s", tagArgPeri, formatFloat(el.ArgumentOfPeriapsis))
		fmt.Fprintf(bw, "--%s:%s", tagLAN, formatFloat(el.LongitudeAscendingNode))
		fmt.Fprintf(bw, "--%s:%s", tagTrueAnom, formatFloat(el.TrueAnomaly))
	}

	if !celestial && !vmath.V3IsZero(rec.Thrust) {
		fmt.Fprintf(bw, "--%s:%s", tagThrust, formatVec(rec.Thrust))
	}

	bw.WriteString(recordEnd + "\n")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatVec(v vmath.Vec3) string {
	return formatFloat(v.X) + "," + formatFloat(v.Y) + "," + formatFloat(v.Z)
}

// recordState accumulates the fields of the record being decoded
type recordState struct {
	rec         Record
	open        bool
	hasName     bool
	hasPosition bool
	hasVelocity bool
	hasMass     bool
	elements    component.Elements
	hasElements bool
}

// Decode reads a snapshot in one forward pass over "--" delimited fields
// Line breaks carry no meaning. Records before any section marker count as celestial.
// A negative date is logged and replaced by the epoch.
func Decode(r io.Reader) (Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("persistence: read: %w", err)
	}
	data := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))

	var (
		snap      Snapshot
		cur       recordState
		celestial = true
	)

	for pos := 0; pos < len(data); {
		if strings.HasPrefix(data[pos:], recordEnd) {
			if err := finishRecord(&snap, &cur, celestial); err != nil {
				return Snapshot{}, err
			}
			pos += len(recordEnd)
			continue
		}
		if !strings.HasPrefix(data[pos:], delimiter) {
			return Snapshot{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, excerpt(data[pos:]), pos)
		}

		body := data[pos+len(delimiter):]
		end := strings.Index(body, delimiter)
		if end < 0 {
			end = len(body)
		}
		field := body[:end]
		pos += len(delimiter) + end

		tag, value, hasValue := strings.Cut(field, ":")
		switch tag {
		case tagCelestial, tagOrbital:
			if hasValue {
				return Snapshot{}, fmt.Errorf("%w: section marker %q carries a value", ErrMalformed, tag)
			}
			if cur.open {
				return Snapshot{}, fmt.Errorf("%w: record %q not terminated before %s", ErrMalformed, cur.rec.Name, tag)
			}
			celestial = tag == tagCelestial
			continue
		case tagDate:
			t, err := epoch.Parse(strings.TrimSpace(value))
			if err != nil {
				return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			if t < 0 {
				log.Printf("[PERSIST] stored date %s precedes the epoch, resetting time to 0", value)
				t = 0
			}
			snap.Time = t
			continue
		}

		if !hasValue {
			return Snapshot{}, fmt.Errorf("%w: unknown marker %q", ErrMalformed, tag)
		}
		if err := cur.set(tag, value); err != nil {
			return Snapshot{}, err
		}
	}

	if cur.open {
		return Snapshot{}, fmt.Errorf("%w: record %q not terminated", ErrMalformed, cur.rec.Name)
	}
	return snap, nil
}

func (s *recordState) set(tag, value string) error {
	s.open = true
	var err error

	switch tag {
	case tagName:
		s.rec.Name = strings.TrimSpace(value)
		s.hasName = s.rec.Name != ""
	case tagParent:
		if p := strings.TrimSpace(value); p != NullParent {
			s.rec.Parent = p
		}
	case tagPosition:
		s.rec.Position, err = parseVec(tag, value)
		s.hasPosition = true
	case tagVelocity:
		s.rec.Velocity, err = parseVec(tag, value)
		s.hasVelocity = true
	case tagThrust:
		s.rec.Thrust, err = parseVec(tag, value)
	case tagMass:
		s.rec.Mass, err = parseFloat(tag, value)
		s.hasMass = true
	case tagRadius:
		s.rec.Radius, err = parseFloat(tag, value)
	case tagSMA:
		s.elements.SemiMajorAxis, err = parseFloat(tag, value)
		s.hasElements = true
	case tagEcc:
		s.elements.Eccentricity, err = parseFloat(tag, value)
		s.hasElements = true
	case tagInc:
		s.elements.Inclination, err = parseFloat(tag, value)
		s.hasElements = true
	case tagArgPeri:
		s.elements.ArgumentOfPeriapsis, err = parseFloat(tag, value)
		s.hasElements = true
	case tagLAN:
		s.elements.LongitudeAscendingNode, err = parseFloat(tag, value)
		s.hasElements = true
	case tagTrueAnom:
		s.elements.TrueAnomaly, err = parseFloat(tag, value)
		s.hasElements = true
	default:
		return fmt.Errorf("%w: unknown tag %q", ErrMalformed, tag)
	}
	return err
}

// finishRecord validates the pending record and files it under the active section
// Elements without a positive semi-major axis are dropped so they get derived from state
func finishRecord(snap *Snapshot, cur *recordState, celestial bool) error {
	if !cur.open {
		return fmt.Errorf("%w: empty record", ErrMalformed)
	}
	missing := func(name string) error {
		return fmt.Errorf("%w: record %q missing %s", ErrMalformed, cur.rec.Name, name)
	}
	switch {
	case !cur.hasName:
		return missing(tagName)
	case !cur.hasPosition:
		return missing(tagPosition)
	case !cur.hasVelocity:
		return missing(tagVelocity)
	case !cur.hasMass:
		return missing(tagMass)
	}

	rec := cur.rec
	if celestial && cur.hasElements && cur.elements.SemiMajorAxis > 0 {
		el := cur.elements
		rec.Elements = &el
	}

	if celestial {
		snap.Celestial = append(snap.Celestial, rec)
	} else {
		snap.Orbital = append(snap.Orbital, rec)
	}
	*cur = recordState{}
	return nil
}

func parseFloat(tag, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q: %v", ErrMalformed, tag, s, err)
	}
	return v, nil
}

func parseVec(tag, s string) (vmath.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vmath.Vec3{}, fmt.Errorf("%w: %s has %d components", ErrVectorRange, tag, len(parts))
	}
	var c [3]float64
	for i, p := range parts {
		v, err := parseFloat(tag, p)
		if err != nil {
			return vmath.Vec3{}, err
		}
		c[i] = v
	}
	return vmath.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

func excerpt(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
