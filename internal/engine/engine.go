package engine

import "errors"

var ErrBlocked = errors.New("placement blocked")
var ErrOutOfRange = errors.New("placement out of building range")

// BlockingQuery is the spatial occupancy collaborator: it reports whether a
// world-space volume overlaps any registered obstacle.
type BlockingQuery interface {
	Overlaps(box Box) bool
}

// BlockingFunc adapts a plain function to BlockingQuery.
type BlockingFunc func(box Box) bool

func (f BlockingFunc) Overlaps(box Box) bool { return f(box) }

// Rules holds the placement constants shared by every participant of a session.
type Rules struct {
	// BuildRange is the maximum distance between a new building and at least
	// one building its owner already has.
	BuildRange float64
}

// Check decides whether a footprint may be placed at point. owned holds the
// positions of the buildings the placing participant already owns.
//
// Obstruction is checked first: a blocked point is rejected regardless of
// proximity. With no owned buildings the result is always ErrOutOfRange.
func (r Rules) Check(fp Footprint, point Vec3, owned []Vec3, q BlockingQuery) error {
	if q != nil && q.Overlaps(fp.At(point)) {
		return ErrBlocked
	}

	limit := r.BuildRange * r.BuildRange
	for _, pos := range owned {
		if point.Sub(pos).SqrMagnitude() <= limit {
			return nil
		}
	}
	return ErrOutOfRange
}

// CanPlace is Check reduced to a decision.
func (r Rules) CanPlace(fp Footprint, point Vec3, owned []Vec3, q BlockingQuery) bool {
	return r.Check(fp, point, owned, q) == nil
}
