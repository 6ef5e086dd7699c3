package engine

import (
	"errors"
	"testing"
)

var barracks = Footprint{Center: Vec3{Y: 1}, Size: Vec3{X: 2, Y: 2, Z: 2}}

func noObstacles() BlockingQuery {
	return BlockingFunc(func(Box) bool { return false })
}

func obstacleAt(b Box) BlockingQuery {
	return BlockingFunc(func(q Box) bool { return q.Overlaps(b) })
}

func TestRulesCheck(t *testing.T) {
	rules := Rules{BuildRange: 5}
	base := Vec3{}

	cases := []struct {
		name    string
		point   Vec3
		owned   []Vec3
		query   BlockingQuery
		wantErr error
	}{
		{
			name:    "within range of owned building",
			point:   Vec3{X: 3, Z: 4}, // distance exactly 5
			owned:   []Vec3{base},
			query:   noObstacles(),
			wantErr: nil,
		},
		{
			name:    "just outside range",
			point:   Vec3{X: 3, Z: 4.01},
			owned:   []Vec3{base},
			query:   noObstacles(),
			wantErr: ErrOutOfRange,
		},
		{
			name:    "no owned buildings",
			point:   Vec3{X: 1},
			owned:   nil,
			query:   noObstacles(),
			wantErr: ErrOutOfRange,
		},
		{
			name:    "second owned building is close enough",
			point:   Vec3{X: 40},
			owned:   []Vec3{base, {X: 38}},
			query:   noObstacles(),
			wantErr: nil,
		},
		{
			name:    "obstacle wins over proximity",
			point:   Vec3{X: 1},
			owned:   []Vec3{base},
			query:   obstacleAt(Box{Center: Vec3{X: 1, Y: 1}, HalfExtents: Vec3{X: 0.5, Y: 0.5, Z: 0.5}}),
			wantErr: ErrBlocked,
		},
		{
			name:    "nil query means nothing blocks",
			point:   Vec3{X: 1},
			owned:   []Vec3{base},
			query:   nil,
			wantErr: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := rules.Check(barracks, tc.point, tc.owned, tc.query)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Check: got %v, want %v", err, tc.wantErr)
			}
			if got := rules.CanPlace(barracks, tc.point, tc.owned, tc.query); got != (tc.wantErr == nil) {
				t.Fatalf("CanPlace: got %v, want %v", got, tc.wantErr == nil)
			}
		})
	}
}

func TestFootprintAtOffsetsCenter(t *testing.T) {
	box := barracks.At(Vec3{X: 10, Z: -2})
	want := Box{Center: Vec3{X: 10, Y: 1, Z: -2}, HalfExtents: Vec3{X: 1, Y: 1, Z: 1}}
	if box != want {
		t.Fatalf("got %#v, want %#v", box, want)
	}
}

func TestBoxOverlaps(t *testing.T) {
	unit := Vec3{X: 1, Y: 1, Z: 1}
	a := Box{Center: Vec3{}, HalfExtents: unit}

	cases := []struct {
		name string
		b    Box
		want bool
	}{
		{"same box", a, true},
		{"partial overlap", Box{Center: Vec3{X: 1.5}, HalfExtents: unit}, true},
		{"touching faces", Box{Center: Vec3{X: 2}, HalfExtents: unit}, false},
		{"separated on z only", Box{Center: Vec3{Z: 3}, HalfExtents: unit}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("Overlaps: got %v, want %v", got, tc.want)
			}
			if got := tc.b.Overlaps(a); got != tc.want {
				t.Fatalf("Overlaps is not symmetric: got %v, want %v", got, tc.want)
			}
		})
	}
}
